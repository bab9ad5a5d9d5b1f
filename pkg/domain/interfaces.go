package domain

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

type Filter struct {
	Field string
	Value any
}

type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
}

type Subscription interface {
	Next(ctx context.Context) (Snapshot, error)
	Stop()
}

type Feed interface {
	Subscribe(ctx context.Context, q Query) (Subscription, error)
}

type DocumentWriter interface {
	Put(collection, id string, data map[string]any) error
	Delete(collection, id string) error
}

type MessageProcessor interface {
	ProcessMessage(ctx context.Context, topic string, payload []byte) error
}

type MetricsCollector interface {
	ObserveSnapshot(feed string)
	ObserveNodes(nodes []Node)
	NodeDiscovered(nodeID string)
	SetActiveAlerts(count int)
	HistorySubscribed(nodeID string)
	ObserveBackendRequest(endpoint, outcome string)
	GetRegistry() *prometheus.Registry
}

type PreferenceStore interface {
	GetLanguage() (string, error)
	SetLanguage(lang string) error
	Close() error
}

type Config interface {
	GetServerConfig() ServerConfig
	GetFeedConfig() FeedConfig
	GetMQTTConfig() MQTTConfig
	GetFirestoreConfig() FirestoreConfig
	GetBackendConfig() BackendConfig
	GetDashboardConfig() DashboardConfig
	GetPreferencesConfig() PreferencesConfig
	Validate() error
}

type ServerConfig interface {
	GetListen() string
	GetChatRatePerSecond() float64
	GetChatBurst() int
	GetTrustProxyHeaders() bool
}

type FeedConfig interface {
	GetSource() string
	GetEmbeddedListen() string
	GetLogAllMessages() bool
}

type MQTTConfig interface {
	GetHost() string
	GetPort() int
	GetTLS() bool
	GetAllowAnonymous() bool
	GetUsers() []UserAuth
	GetTopicPrefix() string
	GetClientID() string
	GetKeepAlive() time.Duration
	GetTimeout() time.Duration
}

type FirestoreConfig interface {
	GetProjectID() string
	GetCredentialsFile() string
}

type BackendConfig interface {
	GetBaseURL() string
	GetTimeout() time.Duration
}

type DashboardConfig interface {
	GetHistoryLimit() int
	GetAlertLimit() int
	GetNotificationTTL() time.Duration
	GetLocation() *time.Location
}

type PreferencesConfig interface {
	GetFile() string
	GetDefaultLanguage() string
}

type UserAuth interface {
	GetUsername() string
	GetPassword() string
}
