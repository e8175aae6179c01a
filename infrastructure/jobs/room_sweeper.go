package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/hilthontt/burnchat/application/usecases/room"
	"github.com/hilthontt/burnchat/infrastructure/logger"
	"go.uber.org/zap"
)

// RoomSweeperJob periodically clears what naturally expired rooms leave
// behind and notifies their listeners.
type RoomSweeperJob struct {
	roomUseCase room.RoomUseCase
	logger      *logger.Logger
	interval    time.Duration
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func NewRoomSweeperJob(roomUseCase room.RoomUseCase, logger *logger.Logger, interval time.Duration) *RoomSweeperJob {
	return &RoomSweeperJob{
		roomUseCase: roomUseCase,
		logger:      logger,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

func (j *RoomSweeperJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("Room sweeper job started",
		zap.Duration("interval", j.interval),
	)

	j.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			j.runSweep(ctx)
		case <-j.stopChan:
			j.logger.Info("Room sweeper job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Room sweeper job context cancelled")
			return
		}
	}
}

func (j *RoomSweeperJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopChan)
	})
}

func (j *RoomSweeperJob) runSweep(ctx context.Context) {
	startTime := time.Now()

	report, err := j.roomUseCase.SweepExpired(ctx)
	if err != nil {
		j.logger.Error("Room sweeper job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return
	}

	if report.Expired == 0 && report.PrunedInvites == 0 {
		j.logger.Debug("Room sweeper found nothing to clear", zap.Int("checked", report.Checked))
		return
	}

	j.logger.Info("Room sweeper job completed",
		zap.Int("checked", report.Checked),
		zap.Int("expired", report.Expired),
		zap.Int("prunedInvites", report.PrunedInvites),
		zap.Duration("duration", time.Since(startTime)),
	)
}
