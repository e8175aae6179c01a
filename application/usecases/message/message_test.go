package message

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hilthontt/burnchat/application/usecases/room"
	"github.com/hilthontt/burnchat/domain/model"
	"github.com/hilthontt/burnchat/domain/repository"
	"github.com/hilthontt/burnchat/infrastructure/cache"
	"github.com/hilthontt/burnchat/infrastructure/config"
	"github.com/hilthontt/burnchat/infrastructure/logger"
	"github.com/hilthontt/burnchat/infrastructure/metrics"
	persistence "github.com/hilthontt/burnchat/infrastructure/persistence/repository"
	"github.com/hilthontt/burnchat/mocks"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	uc        MessageUseCase
	rooms     repository.RoomRepository
	msgs      repository.MessageRepository
	store     *cache.MemoryStore
	clock     *testClock
	publisher *mocks.MockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(cache.Options{Now: clock.Now})
	t.Cleanup(store.Close)

	tracer := tracenoop.NewTracerProvider().Tracer("test")
	rooms := persistence.NewRoomRepository(store, tracer)
	invites := persistence.NewInviteRepository(store, tracer)
	msgs := persistence.NewMessageRepository(store, tracer)

	log := logger.NewNopLogger()
	m := metrics.NewMetricsManager(noop.NewMeterProvider().Meter("test"), log)
	metrics.RegisterDefaults(m)

	publisher := mocks.NewMockPublisher(gomock.NewController(t))
	roomUC := room.NewRoomUseCase(rooms, invites, msgs, publisher, m, log, config.RoomConfig{TTL: 600 * time.Second})
	uc := NewMessageUseCase(msgs, rooms, roomUC, publisher, m, log)

	return &fixture{uc: uc, rooms: rooms, msgs: msgs, store: store, clock: clock, publisher: publisher}
}

// seedRoom creates r1 with the given participants.
func (f *fixture) seedRoom(t *testing.T, tokens ...string) {
	t.Helper()
	req := require.New(t)
	ctx := context.Background()

	req.NoError(f.rooms.Create(ctx, &model.Room{ID: "r1", Connected: []string{}}, 600*time.Second))
	for _, token := range tokens {
		_, err := f.rooms.AddToken(ctx, "r1", token, 2)
		req.NoError(err)
	}
}

func (f *fixture) expectBroadcasts() {
	f.publisher.EXPECT().Publish(gomock.Any(), "r1", model.EventMessage, gomock.Any()).Return(nil).AnyTimes()
}

func Test_Send_Broadcasts_Without_Token(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.seedRoom(t, "alice", "bob")

	f.publisher.EXPECT().
		Publish(gomock.Any(), "r1", model.EventMessage, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, payload any) error {
			msg, ok := payload.(model.Message)
			req.True(ok)
			req.Empty(msg.Token)
			req.Equal("hello", msg.Text)
			return nil
		})

	sent, err := f.uc.Send(ctx, "r1", "alice", SendInput{Sender: "Alice", Text: "hello"})
	req.NoError(err)
	req.NotEmpty(sent.ID)
	req.Equal(model.MessageTypeMessage, sent.Type)
	req.Empty(sent.Token)

	stored, err := f.msgs.GetByRoom(ctx, "r1")
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal("alice", stored[0].Token, "the log keeps the author token")
}

func Test_Send_Aligns_Log_Expiry_With_Room(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.seedRoom(t, "alice")
	f.expectBroadcasts()

	f.clock.Advance(200 * time.Second)

	_, err := f.uc.Send(ctx, "r1", "alice", SendInput{Sender: "Alice", Text: "hi"})
	req.NoError(err)

	ttl, err := f.store.TTL(ctx, "messages:r1")
	req.NoError(err)
	req.Equal(400*time.Second, ttl)

	f.clock.Advance(400 * time.Second)
	list, err := f.uc.List(ctx, "r1", "alice")
	req.NoError(err)
	req.Empty(list)
}

func Test_Send_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedRoom(t, "alice")

	cases := []struct {
		name  string
		input SendInput
	}{
		{"empty text", SendInput{Sender: "a", Text: "   "}},
		{"text too long", SendInput{Sender: "a", Text: strings.Repeat("x", MaxTextLength+1)}},
		{"sender too long", SendInput{Sender: strings.Repeat("s", MaxSenderLength+1), Text: "hi"}},
		{"unknown type", SendInput{Sender: "a", Text: "hi", Type: "shout"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			_, err := f.uc.Send(ctx, "r1", "alice", tc.input)
			req.ErrorIs(err, model.ErrValidation)
		})
	}
}

func Test_Send_Counts_Runes_Not_Bytes(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.seedRoom(t, "alice")
	f.expectBroadcasts()

	_, err := f.uc.Send(context.Background(), "r1", "alice", SendInput{Sender: "é", Text: strings.Repeat("ü", MaxTextLength)})
	req.NoError(err)
}

func Test_Send_To_Missing_Room(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.uc.Send(context.Background(), "missing", "alice", SendInput{Sender: "a", Text: "hi"})
	req.ErrorIs(err, model.ErrRoomNotFound)
}

func Test_List_Redacts_Foreign_Tokens(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.seedRoom(t, "alice", "bob")
	f.expectBroadcasts()

	_, err := f.uc.Send(ctx, "r1", "alice", SendInput{Sender: "Alice", Text: "one"})
	req.NoError(err)
	_, err = f.uc.Send(ctx, "r1", "bob", SendInput{Sender: "Bob", Text: "two"})
	req.NoError(err)

	list, err := f.uc.List(ctx, "r1", "alice")
	req.NoError(err)
	req.Len(list, 2)
	req.Equal("one", list[0].Text)
	req.Equal("alice", list[0].Token)
	req.Equal("two", list[1].Text)
	req.Empty(list[1].Token)

	list, err = f.uc.List(ctx, "r1", "")
	req.NoError(err)
	for _, m := range list {
		req.Empty(m.Token)
	}
}

func Test_DeleteOwn_Removes_Only_Callers_Messages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.seedRoom(t, "alice", "bob")
	f.publisher.EXPECT().Publish(gomock.Any(), "r1", model.EventMessage, gomock.Any()).Return(nil).Times(4)

	mine, err := f.uc.Send(ctx, "r1", "alice", SendInput{Sender: "Alice", Text: "mine"})
	req.NoError(err)
	mineToo, err := f.uc.Send(ctx, "r1", "alice", SendInput{Sender: "Alice", Text: "mine too"})
	req.NoError(err)
	_, err = f.uc.Send(ctx, "r1", "bob", SendInput{Sender: "Bob", Text: "theirs"})
	req.NoError(err)
	_, err = f.uc.PostSystem(ctx, "r1", "alice", "system", "alice joined")
	req.NoError(err)

	f.publisher.EXPECT().
		Publish(gomock.Any(), "r1", model.EventDelete, model.DeletePayload{IDs: []string{mine.ID, mineToo.ID}}).
		Return(nil)

	removed, err := f.uc.DeleteOwn(ctx, "r1", "alice")
	req.NoError(err)
	req.Equal(2, removed)

	list, err := f.uc.List(ctx, "r1", "bob")
	req.NoError(err)
	req.Len(list, 2)
	req.Equal("theirs", list[0].Text)
	req.True(list[1].IsSystem())

	// Nothing left to delete: no event.
	removed, err = f.uc.DeleteOwn(ctx, "r1", "alice")
	req.NoError(err)
	req.Zero(removed)
}

func Test_DeleteOwn_Requires_Membership(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.seedRoom(t, "alice")

	_, err := f.uc.DeleteOwn(context.Background(), "r1", "mallory")
	req.ErrorIs(err, model.ErrInvalidToken)
}

func Test_PostSystem_Requires_Membership(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.seedRoom(t, "alice")

	_, err := f.uc.PostSystem(ctx, "r1", "mallory", "system", "hi")
	req.ErrorIs(err, model.ErrInvalidToken)

	f.expectBroadcasts()
	msg, err := f.uc.PostSystem(ctx, "r1", "alice", "system", "hi")
	req.NoError(err)
	req.Equal(model.MessageTypeSystem, msg.Type)
}

type expireFailingStore struct {
	repository.Store
	prefix string
}

func (s expireFailingStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if strings.HasPrefix(key, s.prefix) {
		return errors.New("expire unavailable")
	}
	return s.Store.Expire(ctx, key, ttl)
}

func Test_Send_Does_Not_Broadcast_When_Expiry_Alignment_Fails(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.seedRoom(t, "alice")

	tracer := tracenoop.NewTracerProvider().Tracer("test")
	log := logger.NewNopLogger()
	m := metrics.NewMetricsManager(noop.NewMeterProvider().Meter("test"), log)
	msgs := persistence.NewMessageRepository(expireFailingStore{Store: f.store, prefix: "messages:"}, tracer)
	roomUC := room.NewRoomUseCase(f.rooms, persistence.NewInviteRepository(f.store, tracer), msgs, f.publisher, m, log, config.RoomConfig{TTL: 600 * time.Second})
	uc := NewMessageUseCase(msgs, f.rooms, roomUC, f.publisher, m, log)

	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := uc.Send(ctx, "r1", "alice", SendInput{Sender: "Alice", Text: "hello"})
	req.Error(err)
}
