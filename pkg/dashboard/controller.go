package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/logger"
)

type Options struct {
	HistoryLimit    int
	AlertLimit      int
	NotificationTTL time.Duration
	Location        *time.Location
	Clock           Clock
	Metrics         domain.MetricsCollector
}

func (o *Options) setDefaults() {
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = domain.DefaultHistoryLimit
	}
	if o.AlertLimit <= 0 {
		o.AlertLimit = domain.DefaultAlertLimit
	}
	if o.NotificationTTL <= 0 {
		o.NotificationTTL = domain.DefaultNotificationTTL
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	if o.Metrics == nil {
		o.Metrics = nopMetrics{}
	}
}

var (
	ErrNotRunning     = errors.New("dashboard controller is not running")
	ErrAlreadyRunning = errors.New("dashboard controller already started")
)

type event any

type nodesEvent struct{ snap domain.Snapshot }

type alertsEvent struct{ snap domain.Snapshot }

type historyEvent struct {
	generation uint64
	snap       domain.Snapshot
}

type expireEvent struct{ id string }

type selectEvent struct {
	nodeID string
	reply  chan error
}

type feedErrorEvent struct {
	feed string
	err  error
}

type historyErrorEvent struct {
	generation uint64
	err        error
}

// Controller owns all dashboard state. Feed snapshots, timer expiries and
// user commands are serialized through one event loop goroutine; readers get
// copies through View and Watch.
type Controller struct {
	feed   domain.Feed
	opts   Options
	logger zerolog.Logger

	events chan event
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	startMu sync.Mutex
	running bool

	// loop-owned
	reconciler    *Reconciler
	selection     Selection
	windower      *Windower
	nodes         NodeSet
	alerts        []domain.Alert
	notifications []domain.NewNodeNotification
	timers        map[string]Timer
	loading       bool
	subs          []domain.Subscription

	viewMu    sync.RWMutex
	view      View
	histories map[string][]domain.Reading
	watchers  map[uint64]chan View
	watcherID uint64
}

func NewController(feed domain.Feed, opts Options) *Controller {
	opts.setDefaults()

	c := &Controller{
		feed:       feed,
		opts:       opts,
		logger:     logger.ComponentLogger("dashboard-controller"),
		events:     make(chan event, domain.DefaultEventBufferSize),
		reconciler: NewReconciler(opts.NotificationTTL),
		windower:   NewWindower(feed, opts.HistoryLimit, opts.Location),
		timers:     make(map[string]Timer),
		loading:    true,
		histories:  make(map[string][]domain.Reading),
		watchers:   make(map[uint64]chan View),
	}
	c.view = c.snapshotView()

	return c
}

func (c *Controller) Start(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)

	nodesSub, err := c.feed.Subscribe(loopCtx, NodesQuery())
	if err != nil {
		cancel()
		return err
	}
	alertsSub, err := c.feed.Subscribe(loopCtx, ActiveAlertsQuery(c.opts.AlertLimit))
	if err != nil {
		nodesSub.Stop()
		cancel()
		return err
	}

	c.drain()
	c.reset()
	c.subs = []domain.Subscription{nodesSub, alertsSub}
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	c.wg.Add(3)
	go c.pump(loopCtx, nodesSub,
		func(s domain.Snapshot) event { return nodesEvent{snap: s} },
		func(err error) event { return feedErrorEvent{feed: "nodes", err: err} })
	go c.pump(loopCtx, alertsSub,
		func(s domain.Snapshot) event { return alertsEvent{snap: s} },
		func(err error) event { return feedErrorEvent{feed: "alerts", err: err} })
	go c.loop(loopCtx)

	c.logger.Info().
		Int("history_limit", c.opts.HistoryLimit).
		Int("alert_limit", c.opts.AlertLimit).
		Msg("Dashboard controller started")

	return nil
}

func (c *Controller) Close() {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if !c.running {
		return
	}

	c.cancel()
	c.wg.Wait()
	c.running = false

	c.viewMu.Lock()
	for id, ch := range c.watchers {
		close(ch)
		delete(c.watchers, id)
	}
	c.viewMu.Unlock()

	c.logger.Info().Msg("Dashboard controller stopped")
}

func (c *Controller) SelectNode(ctx context.Context, nodeID string) error {
	c.startMu.Lock()
	running, done := c.running, c.done
	c.startMu.Unlock()

	if !running {
		return ErrNotRunning
	}

	reply := make(chan error, 1)
	select {
	case c.events <- selectEvent{nodeID: nodeID, reply: reply}:
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) View() View {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.view
}

func (c *Controller) History(nodeID string) ([]domain.Reading, bool) {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()

	window, ok := c.histories[nodeID]
	if !ok {
		return nil, false
	}
	return append([]domain.Reading{}, window...), true
}

// Watch returns a channel that receives the latest view after every change.
// Unread views are replaced by newer ones.
func (c *Controller) Watch() (<-chan View, func()) {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()

	c.watcherID++
	id := c.watcherID
	ch := make(chan View, 1)
	ch <- c.view
	c.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.viewMu.Lock()
			defer c.viewMu.Unlock()
			if w, ok := c.watchers[id]; ok {
				close(w)
				delete(c.watchers, id)
			}
		})
	}
}

func (c *Controller) pump(ctx context.Context, sub domain.Subscription, onSnapshot func(domain.Snapshot) event, onError func(error) event) {
	defer c.wg.Done()

	for {
		snap, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.post(ctx, onError(err))
			}
			return
		}
		if !c.post(ctx, onSnapshot(snap)) {
			return
		}
	}
}

func (c *Controller) drain() {
	for {
		select {
		case ev := <-c.events:
			if sel, ok := ev.(selectEvent); ok {
				sel.reply <- ErrNotRunning
			}
		default:
			return
		}
	}
}

// reset puts loop-owned state back to what NewController built, so a restarted
// controller auto-selects and follows history like a fresh one.
func (c *Controller) reset() {
	c.reconciler.Reset()
	c.selection.Clear()
	c.nodes = NodeSet{}
	c.alerts = nil
	c.notifications = nil
	c.loading = true
	c.publish()
}

func (c *Controller) post(ctx context.Context, ev event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) loop(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.done)
	defer c.teardown()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			if c.handle(ctx, ev) {
				c.publish()
			}
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev event) bool {
	switch e := ev.(type) {
	case nodesEvent:
		c.applyNodes(ctx, e.snap)
	case alertsEvent:
		c.opts.Metrics.ObserveSnapshot("alerts")
		c.alerts = DecodeAlerts(e.snap)
		c.opts.Metrics.SetActiveAlerts(len(c.alerts))
	case historyEvent:
		if !c.windower.Apply(e.generation, e.snap) {
			return false
		}
		c.opts.Metrics.ObserveSnapshot("history")
	case expireEvent:
		return c.expire(e.id)
	case selectEvent:
		changed, err := c.selection.Select(e.nodeID, c.nodes)
		if err == nil && changed {
			c.follow(ctx)
		}
		e.reply <- err
		return changed
	case feedErrorEvent:
		// The view keeps its last state.
		c.logger.Warn().Err(e.err).Str("feed", e.feed).Msg("Feed subscription ended")
		return false
	case historyErrorEvent:
		if e.generation == c.windower.Generation() && c.windower.Current() != "" {
			c.logger.Warn().Err(e.err).Str("node_id", c.windower.Current()).Msg("History subscription ended")
		}
		return false
	default:
		return false
	}
	return true
}

func (c *Controller) applyNodes(ctx context.Context, snap domain.Snapshot) {
	now := c.opts.Clock.Now()
	result := c.reconciler.Apply(snap, now)

	c.nodes = result.Nodes
	c.loading = false
	c.opts.Metrics.ObserveSnapshot("nodes")
	c.opts.Metrics.ObserveNodes(result.Nodes.Nodes())

	for _, n := range result.Notifications {
		c.notify(ctx, n)
	}

	if c.selection.Resolve(c.nodes) {
		c.follow(ctx)
	}
}

func (c *Controller) notify(ctx context.Context, n domain.NewNodeNotification) {
	c.notifications = append(c.notifications, n)
	c.opts.Metrics.NodeDiscovered(n.NodeID)

	id := n.ID
	c.timers[id] = c.opts.Clock.AfterFunc(c.reconciler.TTL(), func() {
		c.post(ctx, expireEvent{id: id})
	})

	c.logger.Info().
		Str("node_id", n.NodeID).
		Str("node_name", n.NodeName).
		Msg("New node detected")
}

func (c *Controller) expire(id string) bool {
	if _, ok := c.timers[id]; !ok {
		return false
	}
	delete(c.timers, id)

	for i, n := range c.notifications {
		if n.ID == id {
			c.notifications = append(c.notifications[:i:i], c.notifications[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Controller) follow(ctx context.Context) {
	nodeID := c.selection.Selected()
	if nodeID == "" {
		c.windower.Stop()
		return
	}

	sub, generation, err := c.windower.Follow(ctx, nodeID)
	if err != nil {
		c.logger.Error().Err(err).Str("node_id", nodeID).Msg("Failed to follow node history")
		return
	}
	c.opts.Metrics.HistorySubscribed(nodeID)

	c.wg.Add(1)
	go c.pump(ctx, sub,
		func(s domain.Snapshot) event { return historyEvent{generation: generation, snap: s} },
		func(err error) event { return historyErrorEvent{generation: generation, err: err} })

	c.logger.Debug().Str("node_id", nodeID).Uint64("generation", generation).Msg("Following node history")
}

func (c *Controller) teardown() {
	for _, sub := range c.subs {
		sub.Stop()
	}
	c.subs = nil
	c.windower.Stop()

	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.notifications = nil
}

func (c *Controller) snapshotView() View {
	history, _ := c.windower.History(c.selection.Selected())
	return buildView(viewState{
		loading:       c.loading,
		nodes:         c.nodes,
		selected:      c.selection.Selected(),
		history:       history,
		alerts:        c.alerts,
		notifications: c.notifications,
		loc:           c.opts.Location,
		now:           c.opts.Clock.Now(),
	})
}

func (c *Controller) publish() {
	v := c.snapshotView()
	histories := c.windower.Cache()

	c.viewMu.Lock()
	defer c.viewMu.Unlock()

	c.view = v
	c.histories = histories
	for _, ch := range c.watchers {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveSnapshot(string)               {}
func (nopMetrics) ObserveNodes([]domain.Node)           {}
func (nopMetrics) NodeDiscovered(string)                {}
func (nopMetrics) SetActiveAlerts(int)                  {}
func (nopMetrics) HistorySubscribed(string)             {}
func (nopMetrics) ObserveBackendRequest(string, string) {}
func (nopMetrics) GetRegistry() *prometheus.Registry    { return nil }
