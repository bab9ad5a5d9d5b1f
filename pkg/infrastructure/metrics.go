package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/version"
)

type PrometheusCollector struct {
	registry *prometheus.Registry

	moisture       *prometheus.GaugeVec
	temperature    *prometheus.GaugeVec
	ph             *prometheus.GaugeVec
	airTemperature *prometheus.GaugeVec
	humidity       *prometheus.GaugeVec
	nitrogen       *prometheus.GaugeVec
	phosphorus     *prometheus.GaugeVec
	potassium      *prometheus.GaugeVec
	battery        *prometheus.GaugeVec
	nodeOnline     *prometheus.GaugeVec
	nodeLastSeen   *prometheus.GaugeVec

	nodesDiscovered   prometheus.Counter
	activeAlerts      prometheus.Gauge
	snapshots         *prometheus.CounterVec
	historySubscribes *prometheus.CounterVec
	backendRequests   *prometheus.CounterVec
	serviceInfo       *prometheus.GaugeVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return NewPrometheusCollectorWithMode(domain.FeedSourceMQTT)
}

func NewPrometheusCollectorWithMode(mode string) *PrometheusCollector {
	collector := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
	}

	collector.setupMetrics()
	collector.setupServiceInfo(mode)
	return collector
}

func nodeGauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"node_id"})
}

func (c *PrometheusCollector) setupMetrics() {
	c.moisture = nodeGauge(domain.MetricNodeMoisture, "Latest soil moisture")
	c.temperature = nodeGauge(domain.MetricNodeTemperature, "Latest soil temperature")
	c.ph = nodeGauge(domain.MetricNodePH, "Latest soil pH")
	c.airTemperature = nodeGauge(domain.MetricNodeAirTemperature, "Latest air temperature")
	c.humidity = nodeGauge(domain.MetricNodeHumidity, "Latest air humidity")
	c.nitrogen = nodeGauge(domain.MetricNodeNitrogen, "Latest nitrogen level")
	c.phosphorus = nodeGauge(domain.MetricNodePhosphorus, "Latest phosphorus level")
	c.potassium = nodeGauge(domain.MetricNodePotassium, "Latest potassium level")
	c.battery = nodeGauge(domain.MetricNodeBattery, "Battery percentage")
	c.nodeOnline = nodeGauge(domain.MetricNodeOnline, "1 when the node reports online")
	c.nodeLastSeen = nodeGauge(domain.MetricNodeLastSeen, "Last seen timestamp")

	c.nodesDiscovered = prometheus.NewCounter(
		prometheus.CounterOpts{Name: domain.MetricNodesDiscovered, Help: "Nodes detected after the first snapshot"})

	c.activeAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: domain.MetricActiveAlerts, Help: "Active alerts in the feed"})

	c.snapshots = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: domain.MetricSnapshotsTotal, Help: "Snapshots received by feed"},
		[]string{"feed"})

	c.historySubscribes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: domain.MetricHistorySubscribes, Help: "History subscriptions started"},
		[]string{"node_id"})

	c.backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: domain.MetricBackendRequests, Help: "Backend requests by endpoint and outcome"},
		[]string{"endpoint", "outcome"})

	c.registry.MustRegister(
		c.moisture, c.temperature, c.ph, c.airTemperature, c.humidity,
		c.nitrogen, c.phosphorus, c.potassium, c.battery, c.nodeOnline,
		c.nodeLastSeen, c.nodesDiscovered, c.activeAlerts, c.snapshots,
		c.historySubscribes, c.backendRequests,
	)
}

func (c *PrometheusCollector) setupServiceInfo(mode string) {
	c.serviceInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: domain.MetricServiceInfo, Help: "Service information"},
		[]string{"version", "mode", "git_commit", "build_date"})
	c.registry.MustRegister(c.serviceInfo)

	v, gitCommit, buildDate := version.GetBuildInfo()
	c.serviceInfo.WithLabelValues(v, mode, gitCommit, buildDate).Set(1)
}

func (c *PrometheusCollector) ObserveSnapshot(feed string) {
	c.snapshots.WithLabelValues(feed).Inc()
}

// ObserveNodes replaces the per-node gauges with the given node set. Readings
// of zero are treated as not reported and leave no series.
func (c *PrometheusCollector) ObserveNodes(nodes []domain.Node) {
	c.resetNodeGauges()

	for _, n := range nodes {
		c.setReading(c.moisture, n.NodeID, n.Latest.Moisture)
		c.setReading(c.temperature, n.NodeID, n.Latest.Temperature)
		c.setReading(c.ph, n.NodeID, n.Latest.PH)
		c.setReading(c.airTemperature, n.NodeID, n.Latest.AirTemperature)
		c.setReading(c.humidity, n.NodeID, n.Latest.Humidity)
		c.setReading(c.nitrogen, n.NodeID, n.Latest.Nitrogen)
		c.setReading(c.phosphorus, n.NodeID, n.Latest.Phosphorus)
		c.setReading(c.potassium, n.NodeID, n.Latest.Potassium)
		c.setReading(c.battery, n.NodeID, n.Latest.BatteryPercentage)

		online := 0.0
		if n.Status == domain.NodeOnline {
			online = 1
		}
		c.nodeOnline.WithLabelValues(n.NodeID).Set(online)

		if n.LastSeen != nil {
			c.nodeLastSeen.WithLabelValues(n.NodeID).Set(float64(n.LastSeen.Unix()))
		}
	}
}

func (c *PrometheusCollector) resetNodeGauges() {
	for _, g := range []*prometheus.GaugeVec{
		c.moisture, c.temperature, c.ph, c.airTemperature, c.humidity,
		c.nitrogen, c.phosphorus, c.potassium, c.battery, c.nodeOnline, c.nodeLastSeen,
	} {
		g.Reset()
	}
}

func (c *PrometheusCollector) setReading(g *prometheus.GaugeVec, nodeID string, value float64) {
	if value != 0 {
		g.WithLabelValues(nodeID).Set(value)
	}
}

func (c *PrometheusCollector) NodeDiscovered(string) {
	c.nodesDiscovered.Inc()
}

func (c *PrometheusCollector) SetActiveAlerts(count int) {
	c.activeAlerts.Set(float64(count))
}

func (c *PrometheusCollector) HistorySubscribed(nodeID string) {
	c.historySubscribes.WithLabelValues(nodeID).Inc()
}

func (c *PrometheusCollector) ObserveBackendRequest(endpoint, outcome string) {
	c.backendRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (c *PrometheusCollector) GetRegistry() *prometheus.Registry {
	return c.registry
}
