package infrastructure

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/logger"
)

var ErrFeedStopped = stderrors.New("feed subscription stopped")

type FirestoreFeed struct {
	client *firestore.Client
	logger zerolog.Logger
}

func NewFirestoreFeed(ctx context.Context, projectID, credentialsFile string) (*FirestoreFeed, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreFeed{
		client: client,
		logger: logger.ComponentLogger("firestore-feed"),
	}, nil
}

func (f *FirestoreFeed) Subscribe(ctx context.Context, q domain.Query) (domain.Subscription, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("query has no collection")
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	it := buildQuery(f.client, q).Snapshots(listenCtx)

	sub := newFeedSubscription(&firestoreSource{it: it}, cancel)
	go sub.run()

	stop := context.AfterFunc(ctx, sub.Stop)
	sub.setStopCtx(stop)

	f.logger.Debug().Str("collection", q.Collection).Msg("listening")
	return sub, nil
}

func (f *FirestoreFeed) Close() error {
	return f.client.Close()
}

func buildQuery(client *firestore.Client, q domain.Query) firestore.Query {
	query := client.Collection(q.Collection).Query
	for _, filter := range q.Filters {
		query = query.Where(filter.Field, "==", filter.Value)
	}
	if q.OrderBy != "" {
		query = query.OrderBy(q.OrderBy, firestoreDirection(q.Direction))
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

func firestoreDirection(d domain.Direction) firestore.Direction {
	if d == domain.Descending {
		return firestore.Desc
	}
	return firestore.Asc
}

func isStopError(err error) bool {
	if stderrors.Is(err, iterator.Done) || stderrors.Is(err, context.Canceled) {
		return true
	}
	return status.Code(err) == codes.Canceled
}

type snapshotSource interface {
	next() (domain.Snapshot, error)
	stop()
}

type firestoreSource struct {
	it *firestore.QuerySnapshotIterator
}

func (s *firestoreSource) next() (domain.Snapshot, error) {
	qs, err := s.it.Next()
	if err != nil {
		return domain.Snapshot{}, err
	}

	docs, err := qs.Documents.GetAll()
	if err != nil {
		return domain.Snapshot{}, err
	}

	snap := domain.Snapshot{
		Documents: make([]domain.Document, 0, len(docs)),
		ReadTime:  qs.ReadTime,
	}
	for _, d := range docs {
		snap.Documents = append(snap.Documents, domain.Document{ID: d.Ref.ID, Data: d.Data()})
	}
	return snap, nil
}

func (s *firestoreSource) stop() {
	s.it.Stop()
}

type sourceResult struct {
	snap domain.Snapshot
	err  error
}

type feedSubscription struct {
	source  snapshotSource
	cancel  context.CancelFunc
	results chan sourceResult
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	stopCtx func() bool
}

func newFeedSubscription(source snapshotSource, cancel context.CancelFunc) *feedSubscription {
	return &feedSubscription{
		source:  source,
		cancel:  cancel,
		results: make(chan sourceResult, 1),
		done:    make(chan struct{}),
	}
}

func (s *feedSubscription) setStopCtx(stop func() bool) {
	s.mu.Lock()
	s.stopCtx = stop
	s.mu.Unlock()
}

// run owns the source: the iterator must not be stopped concurrently with a
// pending next, so Stop only cancels the listener and run stops the source.
func (s *feedSubscription) run() {
	defer s.source.stop()

	for {
		snap, err := s.source.next()
		if err != nil {
			if isStopError(err) {
				err = ErrFeedStopped
			}
			s.deliver(sourceResult{err: err})
			return
		}
		s.deliver(sourceResult{snap: snap})
	}
}

func (s *feedSubscription) deliver(r sourceResult) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case <-s.results:
	default:
	}
	select {
	case s.results <- r:
	default:
	}
}

func (s *feedSubscription) Next(ctx context.Context) (domain.Snapshot, error) {
	select {
	case <-s.done:
		return domain.Snapshot{}, ErrFeedStopped
	default:
	}

	select {
	case r := <-s.results:
		return r.snap, r.err
	case <-s.done:
		return domain.Snapshot{}, ErrFeedStopped
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
}

func (s *feedSubscription) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.cancel()

		s.mu.Lock()
		stop := s.stopCtx
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
	})
}
