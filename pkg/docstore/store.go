package docstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/logger"
)

var (
	ErrStopped = errors.New("subscription stopped")
	ErrClosed  = errors.New("store closed")
)

// Store is an in-memory document database with realtime query listeners.
// Every listener gets the full result set of its query once on subscribe and
// again after each write to the queried collection.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]domain.Document
	subs        map[uint64]*subscription
	nextID      uint64
	closed      bool
	now         func() time.Time
	logger      zerolog.Logger
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]domain.Document),
		subs:        make(map[uint64]*subscription),
		now:         time.Now,
		logger:      logger.ComponentLogger("docstore"),
	}
}

func (s *Store) Put(collection, id string, data map[string]any) error {
	if collection == "" || id == "" {
		return fmt.Errorf("collection and id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]domain.Document)
		s.collections[collection] = docs
	}
	docs[id] = domain.Document{ID: id, Data: maps.Clone(data)}

	s.notifyLocked(collection)
	return nil
}

func (s *Store) Delete(collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	docs, ok := s.collections[collection]
	if !ok {
		return nil
	}
	if _, ok := docs[id]; !ok {
		return nil
	}
	delete(docs, id)

	s.notifyLocked(collection)
	return nil
}

func (s *Store) Get(collection, id string) (domain.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return domain.Document{}, false
	}
	return domain.Document{ID: doc.ID, Data: maps.Clone(doc.Data)}, true
}

func (s *Store) Query(q domain.Query) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked(q)
}

func (s *Store) Subscribe(ctx context.Context, q domain.Query) (domain.Subscription, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("query collection is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	s.nextID++
	sub := &subscription{
		id:    s.nextID,
		query: q,
		ch:    make(chan domain.Snapshot, domain.DefaultSubscriberBuffer),
		done:  make(chan struct{}),
		store: s,
	}
	s.subs[sub.id] = sub
	sub.mu.Lock()
	sub.stopCtx = context.AfterFunc(ctx, sub.Stop)
	sub.mu.Unlock()

	sub.deliver(s.snapshotLocked(q))

	s.logger.Debug().
		Uint64("subscription", sub.id).
		Str("collection", q.Collection).
		Msg("Listener registered")

	return sub, nil
}

func (s *Store) Close() {
	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.closed = true
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Stop()
	}
}

func (s *Store) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) notifyLocked(collection string) {
	for _, sub := range s.subs {
		if sub.query.Collection == collection {
			sub.deliver(s.snapshotLocked(sub.query))
		}
	}
}

func (s *Store) snapshotLocked(q domain.Query) domain.Snapshot {
	docs := evaluate(s.collections[q.Collection], q)
	for i := range docs {
		docs[i].Data = maps.Clone(docs[i].Data)
	}
	return domain.Snapshot{Documents: docs, ReadTime: s.now()}
}

func (s *Store) remove(id uint64) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
}

type subscription struct {
	id      uint64
	query   domain.Query
	ch      chan domain.Snapshot
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	stopCtx func() bool
	store   *Store
}

// deliver replaces an unread snapshot so slow readers only see the latest state.
// Callers hold the store lock, which keeps deliveries ordered.
func (sub *subscription) deliver(snap domain.Snapshot) {
	select {
	case sub.ch <- snap:
		return
	default:
	}

	select {
	case <-sub.ch:
	default:
	}

	select {
	case sub.ch <- snap:
	default:
	}
}

func (sub *subscription) Next(ctx context.Context) (domain.Snapshot, error) {
	select {
	case <-sub.done:
		return domain.Snapshot{}, ErrStopped
	default:
	}

	select {
	case snap := <-sub.ch:
		return snap, nil
	case <-sub.done:
		return domain.Snapshot{}, ErrStopped
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
}

func (sub *subscription) Stop() {
	sub.once.Do(func() {
		close(sub.done)

		sub.mu.Lock()
		stopCtx := sub.stopCtx
		sub.mu.Unlock()
		if stopCtx != nil {
			stopCtx()
		}
		sub.store.remove(sub.id)
	})
}
