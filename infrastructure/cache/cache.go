package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hilthontt/burnchat/domain/repository"
)

var ErrWrongType = errors.New("WRONGTYPE operation against a key holding the wrong kind of value")

// Item represents a stored value with its expiration time
type Item struct {
	Value      any
	Expiration time.Time
	Created    time.Time
}

// IsExpired returns true if the item has expired at the given instant
func (item Item) IsExpired(now time.Time) bool {
	if item.Expiration.IsZero() {
		return false
	}
	return !now.Before(item.Expiration)
}

type Stats struct {
	Hits       int64
	Misses     int64
	Expired    int64
	TotalItems int64
}

// Options configures the memory store
type Options struct {
	CleanupInterval time.Duration
	// Now overrides the clock, which lets tests move time forward.
	Now func() time.Time
}

// DefaultOptions returns the default store options
func DefaultOptions() Options {
	return Options{
		CleanupInterval: time.Minute,
		Now:             time.Now,
	}
}

// MemoryStore is an in-process repository.Store with redis-like semantics.
// Every operation holds the single lock, so each one is atomic.
type MemoryStore struct {
	items           map[string]Item
	mu              sync.Mutex
	cleanupInterval time.Duration
	now             func() time.Time
	stopCleanup     chan struct{}
	closeOnce       sync.Once
	stats           Stats
}

var _ repository.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new store with the given options
func NewMemoryStore(options Options) *MemoryStore {
	if options.Now == nil {
		options.Now = time.Now
	}

	store := &MemoryStore{
		items:           make(map[string]Item),
		cleanupInterval: options.CleanupInterval,
		now:             options.Now,
		stopCleanup:     make(chan struct{}),
	}

	if options.CleanupInterval > 0 {
		go store.startCleanupTimer()
	}

	return store
}

func (s *MemoryStore) startCleanupTimer() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup removes expired items from the store
func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, item := range s.items {
		if item.IsExpired(now) {
			delete(s.items, key)
			s.stats.Expired++
		}
	}
}

// Close stops the cleanup goroutine
func (s *MemoryStore) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// Flush removes all items
func (s *MemoryStore) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]Item)
	s.stats = Stats{}
}

// Count returns the number of live items
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for _, item := range s.items {
		if !item.IsExpired(now) {
			count++
		}
	}
	return count
}

// GetStats returns the store statistics
func (s *MemoryStore) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// lookup returns the live item under key, dropping it if it has expired.
// Callers must hold the lock.
func (s *MemoryStore) lookup(key string) (Item, bool) {
	item, found := s.items[key]
	if !found {
		s.stats.Misses++
		return Item{}, false
	}

	if item.IsExpired(s.now()) {
		delete(s.items, key)
		s.stats.Expired++
		s.stats.Misses++
		return Item{}, false
	}

	s.stats.Hits++
	return item, true
}

func (s *MemoryStore) store(key string, value any, ttl time.Duration) {
	now := s.now()
	item := Item{Value: value, Created: now}
	if ttl > 0 {
		item.Expiration = now.Add(ttl)
	}
	s.items[key] = item
	s.stats.TotalItems++
}

// replace swaps the value of an existing item, keeping its expiry.
func (s *MemoryStore) replace(key string, item Item, value any) {
	item.Value = value
	s.items[key] = item
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getString(key)
}

func (s *MemoryStore) getString(key string) (string, error) {
	item, found := s.lookup(key)
	if !found {
		return "", repository.ErrNil
	}

	value, ok := item.Value.(string)
	if !ok {
		return "", ErrWrongType
	}
	return value, nil
}

func (s *MemoryStore) GetDel(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := s.getString(key)
	if err != nil {
		return "", err
	}
	delete(s.items, key)
	return value, nil
}

func (s *MemoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.lookup(key); found {
		return false, nil
	}
	s.store(key, value, ttl)
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store(key, value, ttl)
	return nil
}

func (s *MemoryStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, _, err := s.getHash(key)
	if err != nil {
		return nil, err
	}
	if hash == nil {
		return nil, repository.ErrNil
	}

	out := make(map[string]string, len(hash))
	for k, v := range hash {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) getHash(key string) (map[string]string, Item, error) {
	item, found := s.lookup(key)
	if !found {
		return nil, Item{}, nil
	}

	hash, ok := item.Value.(map[string]string)
	if !ok {
		return nil, Item{}, ErrWrongType
	}
	return hash, item, nil
}

func (s *MemoryStore) HSetEx(_ context.Context, key string, values map[string]string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, item, err := s.getHash(key)
	if err != nil {
		return err
	}

	if hash == nil {
		hash = make(map[string]string, len(values))
		for k, v := range values {
			hash[k] = v
		}
		s.store(key, hash, ttl)
		return nil
	}

	for k, v := range values {
		hash[k] = v
	}
	if ttl > 0 {
		item.Expiration = s.now().Add(ttl)
	}
	s.replace(key, item, hash)
	return nil
}

func (s *MemoryStore) HCompareAndSwap(_ context.Context, key, field, prev, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, item, err := s.getHash(key)
	if err != nil {
		return false, err
	}
	if hash == nil {
		return false, repository.ErrNil
	}

	if hash[field] != prev {
		return false, nil
	}

	hash[field] = next
	s.replace(key, item, hash)
	return true, nil
}

func (s *MemoryStore) getList(key string) ([]string, Item, error) {
	item, found := s.lookup(key)
	if !found {
		return nil, Item{}, nil
	}

	list, ok := item.Value.([]string)
	if !ok {
		return nil, Item{}, ErrWrongType
	}
	return list, item, nil
}

func (s *MemoryStore) RPush(_ context.Context, key string, values ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, item, err := s.getList(key)
	if err != nil {
		return err
	}

	if list == nil {
		s.store(key, slices.Clone(values), 0)
		return nil
	}

	s.replace(key, item, append(list, values...))
	return nil
}

func (s *MemoryStore) LRange(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, _, err := s.getList(key)
	if err != nil {
		return nil, err
	}
	return slices.Clone(list), nil
}

func (s *MemoryStore) LRem(_ context.Context, key, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, item, err := s.getList(key)
	if err != nil || list == nil {
		return 0, err
	}

	kept := slices.DeleteFunc(slices.Clone(list), func(v string) bool { return v == value })
	removed := int64(len(list) - len(kept))

	if len(kept) == 0 {
		delete(s.items, key)
	} else {
		s.replace(key, item, kept)
	}
	return removed, nil
}

func (s *MemoryStore) getSet(key string) (mapset.Set[string], Item, error) {
	item, found := s.lookup(key)
	if !found {
		return nil, Item{}, nil
	}

	set, ok := item.Value.(mapset.Set[string])
	if !ok {
		return nil, Item{}, ErrWrongType
	}
	return set, item, nil
}

func (s *MemoryStore) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, item, err := s.getSet(key)
	if err != nil {
		return err
	}

	if set == nil {
		s.store(key, mapset.NewThreadUnsafeSet(members...), 0)
		return nil
	}

	set.Append(members...)
	s.replace(key, item, set)
	return nil
}

func (s *MemoryStore) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, _, err := s.getSet(key)
	if err != nil || set == nil {
		return err
	}

	set.RemoveAll(members...)
	if set.Cardinality() == 0 {
		delete(s.items, key)
	}
	return nil
}

func (s *MemoryStore) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, _, err := s.getSet(key)
	if err != nil || set == nil {
		return []string{}, err
	}
	return set.ToSlice(), nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found := s.lookup(key)
	return found, nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.lookup(key)
	if !found {
		return nil
	}

	if ttl <= 0 {
		delete(s.items, key)
		return nil
	}

	item.Expiration = s.now().Add(ttl)
	s.items[key] = item
	return nil
}

func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.lookup(key)
	if !found || item.Expiration.IsZero() {
		return 0, nil
	}
	return item.Expiration.Sub(s.now()), nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.items, key)
	}
	return nil
}
