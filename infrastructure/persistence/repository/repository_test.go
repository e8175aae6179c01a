package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hilthontt/burnchat/domain/model"
	"github.com/hilthontt/burnchat/domain/repository"
	"github.com/hilthontt/burnchat/infrastructure/cache"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setup(t *testing.T) (*cache.MemoryStore, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(cache.Options{Now: c.Now})
	t.Cleanup(store.Close)
	return store, c
}

var tracer = noop.NewTracerProvider().Tracer("test")

func newRoom(id string) *model.Room {
	return &model.Room{ID: id, Connected: []string{}, CreatedAt: time.UnixMilli(1_700_000_000_000)}
}

func Test_Room_Create_And_Get(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, _ := setup(t)
	repo := NewRoomRepository(store, tracer)

	req.NoError(repo.Create(ctx, newRoom("r1"), 600*time.Second))

	room, err := repo.GetByID(ctx, "r1")
	req.NoError(err)
	req.Equal("r1", room.ID)
	req.Empty(room.Connected)
	req.Equal(int64(1_700_000_000_000), room.CreatedAt.UnixMilli())

	ttl, err := repo.TTL(ctx, "r1")
	req.NoError(err)
	req.Equal(600*time.Second, ttl)

	ids, err := repo.ListIDs(ctx)
	req.NoError(err)
	req.Equal([]string{"r1"}, ids)

	// Stored layout stays readable by other clients of the store.
	fields, err := store.HGetAll(ctx, "meta:r1")
	req.NoError(err)
	req.Equal("[]", fields["connected"])
	req.Equal("1700000000000", fields["createdAt"])
}

type indexFailingStore struct {
	repository.Store
}

func (indexFailingStore) SAdd(context.Context, string, ...string) error {
	return errors.New("index unavailable")
}

func Test_Room_Create_Failure_Never_Leaves_Metadata_Without_Expiry(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, clk := setup(t)
	repo := NewRoomRepository(indexFailingStore{Store: store}, tracer)

	req.Error(repo.Create(ctx, newRoom("r1"), 600*time.Second))

	ttl, err := store.TTL(ctx, "meta:r1")
	req.NoError(err)
	req.Equal(600*time.Second, ttl)

	clk.Advance(600 * time.Second)
	_, err = repo.GetByID(ctx, "r1")
	req.ErrorIs(err, model.ErrRoomNotFound)
}

func Test_Room_Expires_After_TTL(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, clk := setup(t)
	repo := NewRoomRepository(store, tracer)

	req.NoError(repo.Create(ctx, newRoom("r1"), 600*time.Second))

	clk.Advance(599 * time.Second)
	_, err := repo.GetByID(ctx, "r1")
	req.NoError(err)

	clk.Advance(time.Second)
	_, err = repo.GetByID(ctx, "r1")
	req.ErrorIs(err, model.ErrRoomNotFound)

	ttl, err := repo.TTL(ctx, "r1")
	req.NoError(err)
	req.Zero(ttl)

	// The index entry outlives the metadata until swept.
	ids, err := repo.ListIDs(ctx)
	req.NoError(err)
	req.Equal([]string{"r1"}, ids)

	req.NoError(repo.Unindex(ctx, "r1"))
	ids, err = repo.ListIDs(ctx)
	req.NoError(err)
	req.Empty(ids)
}

func Test_Room_AddToken_Honours_Limit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, _ := setup(t)
	repo := NewRoomRepository(store, tracer)

	req.NoError(repo.Create(ctx, newRoom("r1"), time.Minute))

	room, err := repo.AddToken(ctx, "r1", "t1", 2)
	req.NoError(err)
	req.Equal([]string{"t1"}, room.Connected)

	// Re-adding a member is a no-op.
	room, err = repo.AddToken(ctx, "r1", "t1", 2)
	req.NoError(err)
	req.Equal([]string{"t1"}, room.Connected)

	room, err = repo.AddToken(ctx, "r1", "t2", 2)
	req.NoError(err)
	req.Equal([]string{"t1", "t2"}, room.Connected)

	_, err = repo.AddToken(ctx, "r1", "t3", 2)
	req.ErrorIs(err, model.ErrRoomFull)

	_, err = repo.AddToken(ctx, "missing", "t1", 2)
	req.ErrorIs(err, model.ErrRoomNotFound)

	// Admission does not touch the room's expiry.
	ttl, err := repo.TTL(ctx, "r1")
	req.NoError(err)
	req.Equal(time.Minute, ttl)
}

func Test_Room_AddToken_Concurrent_Never_Exceeds_Limit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, _ := setup(t)
	repo := NewRoomRepository(store, tracer)

	req.NoError(repo.Create(ctx, newRoom("r1"), time.Minute))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.AddToken(ctx, "r1", string(rune('a'+i)), 2)
		}()
	}
	wg.Wait()

	room, err := repo.GetByID(ctx, "r1")
	req.NoError(err)
	req.LessOrEqual(len(room.Connected), 2)
	req.NotEmpty(room.Connected)
}

func Test_Room_Delete_Removes_Every_Key(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, _ := setup(t)
	repo := NewRoomRepository(store, tracer)

	req.NoError(repo.Create(ctx, newRoom("r1"), time.Minute))
	req.NoError(store.Set(ctx, "r1", "legacy", time.Minute))

	req.NoError(repo.Delete(ctx, "r1"))

	_, err := repo.GetByID(ctx, "r1")
	req.ErrorIs(err, model.ErrRoomNotFound)

	exists, err := store.Exists(ctx, "r1")
	req.NoError(err)
	req.False(exists)

	ids, err := repo.ListIDs(ctx)
	req.NoError(err)
	req.Empty(ids)
}

func Test_Invite_Create_Consume_Once(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, _ := setup(t)
	repo := NewInviteRepository(store, tracer)

	invite := &model.Invite{Code: "ABCD2345", RoomID: "r1", CreatedBy: "t1"}
	stored, err := repo.Create(ctx, invite, 300*time.Second, 600*time.Second)
	req.NoError(err)
	req.True(stored)

	stored, err = repo.Create(ctx, &model.Invite{Code: "ABCD2345", RoomID: "r2"}, time.Minute, time.Minute)
	req.NoError(err)
	req.False(stored, "codes never collide")

	ttl, err := repo.TTL(ctx, "ABCD2345")
	req.NoError(err)
	req.Equal(300*time.Second, ttl)

	codes, err := store.SMembers(ctx, "invites:r1")
	req.NoError(err)
	req.Equal([]string{"ABCD2345"}, codes)

	// Reading leaves the invite redeemable.
	peeked, err := repo.Get(ctx, "ABCD2345")
	req.NoError(err)
	req.Equal(invite, peeked)
	peeked, err = repo.Get(ctx, "ABCD2345")
	req.NoError(err)
	req.Equal("r1", peeked.RoomID)

	raw, err := store.Get(ctx, "invite:ABCD2345")
	req.NoError(err)
	var payload map[string]string
	req.NoError(json.Unmarshal([]byte(raw), &payload))
	req.Equal(map[string]string{"roomId": "r1", "createdBy": "t1"}, payload)

	consumed, err := repo.Consume(ctx, "ABCD2345")
	req.NoError(err)
	req.Equal(invite, consumed)

	_, err = repo.Consume(ctx, "ABCD2345")
	req.ErrorIs(err, model.ErrRoomNotFound)
	_, err = repo.Get(ctx, "ABCD2345")
	req.ErrorIs(err, model.ErrRoomNotFound)

	codes, err = store.SMembers(ctx, "invites:r1")
	req.NoError(err)
	req.Empty(codes)
}

func Test_Invite_Prune_And_DeleteAll(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, clk := setup(t)
	repo := NewInviteRepository(store, tracer)

	_, err := repo.Create(ctx, &model.Invite{Code: "SHORT234", RoomID: "r1"}, 10*time.Second, 600*time.Second)
	req.NoError(err)
	_, err = repo.Create(ctx, &model.Invite{Code: "LONG2345", RoomID: "r1"}, 300*time.Second, 600*time.Second)
	req.NoError(err)

	clk.Advance(11 * time.Second)

	pruned, err := repo.Prune(ctx, "r1")
	req.NoError(err)
	req.Equal(1, pruned)

	codes, err := store.SMembers(ctx, "invites:r1")
	req.NoError(err)
	req.Equal([]string{"LONG2345"}, codes)

	req.NoError(repo.DeleteAll(ctx, "r1"))

	_, err = repo.Get(ctx, "LONG2345")
	req.ErrorIs(err, model.ErrRoomNotFound)

	exists, err := store.Exists(ctx, "invites:r1")
	req.NoError(err)
	req.False(exists)
}

func Test_Message_Append_Remove_And_Refresh(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, clk := setup(t)
	repo := NewMessageRepository(store, tracer)

	first := &model.Message{ID: "m1", Sender: "a", Text: "hi", RoomID: "r1", Type: model.MessageTypeMessage, Token: "t1"}
	second := &model.Message{ID: "m2", Sender: "b", Text: "yo", RoomID: "r1", Type: model.MessageTypeMessage, Token: "t2"}
	req.NoError(repo.Append(ctx, first))
	req.NoError(repo.Append(ctx, second))

	// Malformed entries are skipped on read.
	req.NoError(store.RPush(ctx, "messages:r1", "{not json"))

	stored, err := repo.GetByRoom(ctx, "r1")
	req.NoError(err)
	req.Len(stored, 2)
	req.Equal("m1", stored[0].ID)
	req.Equal("t1", stored[0].Token)
	req.Equal("m2", stored[1].ID)

	removed, err := repo.Remove(ctx, "r1", stored[0])
	req.NoError(err)
	req.True(removed)

	removed, err = repo.Remove(ctx, "r1", stored[0])
	req.NoError(err)
	req.False(removed)

	req.NoError(repo.Refresh(ctx, "r1", 30*time.Second))
	ttl, err := store.TTL(ctx, "messages:r1")
	req.NoError(err)
	req.Equal(30*time.Second, ttl)

	clk.Advance(30 * time.Second)
	stored, err = repo.GetByRoom(ctx, "r1")
	req.NoError(err)
	req.Empty(stored)
}

func Test_Message_Refresh_Without_Time_Left_Deletes(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, _ := setup(t)
	repo := NewMessageRepository(store, tracer)

	req.NoError(repo.Append(ctx, &model.Message{ID: "m1", RoomID: "r1", Text: "x", Type: model.MessageTypeMessage}))
	req.NoError(repo.Refresh(ctx, "r1", 0))

	exists, err := store.Exists(ctx, "messages:r1")
	req.NoError(err)
	req.False(exists)

	req.NoError(repo.Append(ctx, &model.Message{ID: "m2", RoomID: "r1", Text: "x", Type: model.MessageTypeMessage}))
	req.NoError(repo.DeleteByRoom(ctx, "r1"))

	stored, err := repo.GetByRoom(ctx, "r1")
	req.NoError(err)
	req.Empty(stored)
}
