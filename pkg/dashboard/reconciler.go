package dashboard

import (
	"time"

	"github.com/google/uuid"

	"sprouthub/pkg/domain"
)

type ReconcileResult struct {
	Nodes         NodeSet
	NewNodeIDs    []string
	Notifications []domain.NewNodeNotification
	Initial       bool
}

// Reconciler diffs consecutive node snapshots. The first snapshot after
// construction or Reset only primes the known id set.
type Reconciler struct {
	known  map[string]struct{}
	primed bool
	ttl    time.Duration
	newID  func() string
}

func NewReconciler(ttl time.Duration) *Reconciler {
	if ttl <= 0 {
		ttl = domain.DefaultNotificationTTL
	}
	return &Reconciler{
		known: make(map[string]struct{}),
		ttl:   ttl,
		newID: uuid.NewString,
	}
}

func (r *Reconciler) Apply(snap domain.Snapshot, now time.Time) ReconcileResult {
	nodes := DecodeNodes(snap)
	result := ReconcileResult{Nodes: nodes, Initial: !r.primed}

	if r.primed {
		for _, id := range nodes.IDs() {
			if _, ok := r.known[id]; ok {
				continue
			}
			node, _ := nodes.Get(id)
			result.NewNodeIDs = append(result.NewNodeIDs, id)
			result.Notifications = append(result.Notifications, domain.NewNodeNotification{
				ID:        r.newID(),
				NodeID:    id,
				NodeName:  node.DisplayName(),
				Timestamp: now,
				ExpiresAt: now.Add(r.ttl),
			})
		}
	}

	r.known = make(map[string]struct{}, nodes.Len())
	for _, id := range nodes.IDs() {
		r.known[id] = struct{}{}
	}
	r.primed = true

	return result
}

func (r *Reconciler) Reset() {
	r.known = make(map[string]struct{})
	r.primed = false
}

func (r *Reconciler) TTL() time.Duration {
	return r.ttl
}
