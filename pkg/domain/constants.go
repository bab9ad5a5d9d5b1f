package domain

import "time"

const (
	CollectionNodes    = "nodes"
	CollectionAlerts   = "alerts"
	CollectionReadings = "readings"
	HistorySubpath     = "history"

	FieldNodeID    = "node_id"
	FieldStatus    = "status"
	FieldCreatedAt = "created_at"
	FieldTimestamp = "timestamp"

	AlertStatusActive = "active"

	DefaultHistoryLimit     = 20
	DefaultAlertLimit       = 10
	DefaultNotificationTTL  = 5 * time.Second
	DefaultTimeLabelLayout  = "03:04 PM"
	MissingTimeLabel        = "N/A"
	DefaultSearchResults    = 5
	DefaultEventBufferSize  = 64
	DefaultSubscriberBuffer = 1

	MetricNodeMoisture       = "sprouthub_node_moisture_percent"
	MetricNodeTemperature    = "sprouthub_node_soil_temperature_celsius"
	MetricNodePH             = "sprouthub_node_ph"
	MetricNodeAirTemperature = "sprouthub_node_air_temperature_celsius"
	MetricNodeHumidity       = "sprouthub_node_humidity_percent"
	MetricNodeNitrogen       = "sprouthub_node_nitrogen_mg_kg"
	MetricNodePhosphorus     = "sprouthub_node_phosphorus_mg_kg"
	MetricNodePotassium      = "sprouthub_node_potassium_mg_kg"
	MetricNodeBattery        = "sprouthub_node_battery_percent"
	MetricNodeOnline         = "sprouthub_node_online"
	MetricNodeLastSeen       = "sprouthub_node_last_seen_timestamp"
	MetricNodesDiscovered    = "sprouthub_nodes_discovered_total"
	MetricActiveAlerts       = "sprouthub_active_alerts"
	MetricSnapshotsTotal     = "sprouthub_feed_snapshots_total"
	MetricHistorySubscribes  = "sprouthub_history_subscriptions_total"
	MetricBackendRequests    = "sprouthub_backend_requests_total"
	MetricServiceInfo        = "sprouthub_info"

	StateFilePermissions = 0600

	DefaultTimeout        = 30 * time.Second
	DefaultBackendTimeout = 60 * time.Second
	DefaultReadTimeout    = 15 * time.Second
	DefaultWriteTimeout   = 15 * time.Second
	DefaultIdleTimeout    = 60 * time.Second
	DefaultHeaderTimeout  = 5 * time.Second

	DefaultTopicPrefix    = "sprouthub/"
	DocumentTopicSegment  = "docs"
	DefaultHealthPath     = "/health"
	DefaultMetricsPath    = "/metrics"
	DefaultWebSocketPath  = "/ws"
	DefaultListen         = "localhost:8100"
	DefaultBackendBaseURL = "http://127.0.0.1:8000/api/v1"
	DefaultEmbeddedListen = ":1883"

	DefaultMQTTKeepAlive    = 60 * time.Second
	DefaultMQTTPingTimeout  = 10 * time.Second
	DefaultMQTTConnTimeout  = 30 * time.Second
	DefaultMQTTReconnectInt = 30 * time.Second
	DefaultMQTTDisconnectMs = 250

	DefaultChatRatePerSecond = 1.0
	DefaultChatBurst         = 3

	MaxTopicLength      = 256
	MaxDocumentIDLength = 128
	MaxPayloadSize      = 1024 * 1024
	MaxResponseSize     = 16 * 1024 * 1024

	ShutdownTimeoutDivider = 3

	FeedSourceMQTT      = "mqtt"
	FeedSourceEmbedded  = "embedded"
	FeedSourceFirestore = "firestore"

	LanguagePreferenceKey = "sprouthub_language"
	LanguageEnglish       = "en"
	LanguageFilipino      = "fil"
)
