package dashboard

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"sprouthub/pkg/domain"
)

// BuildWindow turns a newest-first history snapshot into at most limit
// readings ordered oldest to newest.
func BuildWindow(snap domain.Snapshot, limit int, loc *time.Location) []domain.Reading {
	docs := snap.Documents
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}

	window := make([]domain.Reading, 0, len(docs))
	for _, doc := range docs {
		window = append(window, DecodeReading(doc, loc))
	}
	slices.Reverse(window)

	return window
}

type Windower struct {
	feed  domain.Feed
	limit int
	loc   *time.Location

	cache      map[string][]domain.Reading
	current    string
	generation uint64
	sub        domain.Subscription
}

func NewWindower(feed domain.Feed, limit int, loc *time.Location) *Windower {
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}
	return &Windower{
		feed:  feed,
		limit: limit,
		loc:   loc,
		cache: make(map[string][]domain.Reading),
	}
}

// Follow stops the active subscription and opens one for nodeID. Snapshots
// from the returned subscription must be applied with the returned generation.
func (w *Windower) Follow(ctx context.Context, nodeID string) (domain.Subscription, uint64, error) {
	w.Stop()

	sub, err := w.feed.Subscribe(ctx, HistoryQuery(nodeID, w.limit))
	if err != nil {
		return nil, 0, fmt.Errorf("subscribe history for %s: %w", nodeID, err)
	}

	w.generation++
	w.current = nodeID
	w.sub = sub

	return sub, w.generation, nil
}

func (w *Windower) Apply(generation uint64, snap domain.Snapshot) bool {
	if w.sub == nil || generation != w.generation {
		return false
	}
	w.cache[w.current] = BuildWindow(snap, w.limit, w.loc)
	return true
}

func (w *Windower) Stop() {
	if w.sub != nil {
		w.sub.Stop()
		w.sub = nil
	}
	w.current = ""
}

func (w *Windower) Generation() uint64 {
	return w.generation
}

func (w *Windower) Current() string {
	return w.current
}

func (w *Windower) History(nodeID string) ([]domain.Reading, bool) {
	window, ok := w.cache[nodeID]
	return window, ok
}

func (w *Windower) Cache() map[string][]domain.Reading {
	return maps.Clone(w.cache)
}
