package adapters

import (
	"fmt"
	"net/url"
	"time"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/errors"
	"sprouthub/pkg/validator"
)

type ConfigAdapter struct {
	Server      ServerConfigAdapter
	Feed        FeedConfigAdapter
	MQTT        MQTTConfigAdapter
	Firestore   FirestoreConfigAdapter
	Backend     BackendConfigAdapter
	Dashboard   DashboardConfigAdapter
	Preferences PreferencesConfigAdapter
}

type ServerConfigAdapter struct {
	Listen            string
	ChatRatePerSecond float64
	ChatBurst         int
	TrustProxyHeaders bool
}

type FeedConfigAdapter struct {
	Source         string
	EmbeddedListen string
	LogAllMessages bool
}

type MQTTConfigAdapter struct {
	Host           string
	Port           int
	TLS            bool
	AllowAnonymous bool
	Users          []UserAuthAdapter
	TopicPrefix    string
	ClientID       string
	KeepAlive      time.Duration
	Timeout        time.Duration
}

type UserAuthAdapter struct {
	Username string
	Password string
}

type FirestoreConfigAdapter struct {
	ProjectID       string
	CredentialsFile string
}

type BackendConfigAdapter struct {
	BaseURL string
	Timeout time.Duration
}

type DashboardConfigAdapter struct {
	HistoryLimit    int
	AlertLimit      int
	NotificationTTL time.Duration
	Location        *time.Location
}

type PreferencesConfigAdapter struct {
	File            string
	DefaultLanguage string
}

func (c *ConfigAdapter) GetServerConfig() domain.ServerConfig           { return &c.Server }
func (c *ConfigAdapter) GetFeedConfig() domain.FeedConfig               { return &c.Feed }
func (c *ConfigAdapter) GetMQTTConfig() domain.MQTTConfig               { return &c.MQTT }
func (c *ConfigAdapter) GetFirestoreConfig() domain.FirestoreConfig     { return &c.Firestore }
func (c *ConfigAdapter) GetBackendConfig() domain.BackendConfig         { return &c.Backend }
func (c *ConfigAdapter) GetDashboardConfig() domain.DashboardConfig     { return &c.Dashboard }
func (c *ConfigAdapter) GetPreferencesConfig() domain.PreferencesConfig { return &c.Preferences }

// Validate checks only the sections the selected feed source uses.
func (c *ConfigAdapter) Validate() error {
	if c.Server.Listen == "" {
		return errors.NewConfigError("server listen address cannot be empty", nil)
	}
	if c.Server.ChatRatePerSecond <= 0 || c.Server.ChatBurst <= 0 {
		return errors.NewConfigError("chat rate limit must be positive", nil)
	}

	switch c.Feed.Source {
	case domain.FeedSourceMQTT:
		if c.MQTT.Host == "" {
			return errors.NewConfigError("MQTT host cannot be empty", nil)
		}
		if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
			return errors.NewConfigError(fmt.Sprintf("invalid MQTT port: %d", c.MQTT.Port), nil)
		}
	case domain.FeedSourceEmbedded:
		if c.Feed.EmbeddedListen == "" {
			return errors.NewConfigError("embedded broker listen address cannot be empty", nil)
		}
	case domain.FeedSourceFirestore:
		if c.Firestore.ProjectID == "" {
			return errors.NewConfigError("firestore project id cannot be empty", nil)
		}
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown feed source %q", c.Feed.Source), nil)
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewConfigError(fmt.Sprintf("invalid backend base url %q", c.Backend.BaseURL), err)
	}

	if c.Dashboard.HistoryLimit <= 0 {
		return errors.NewConfigError(fmt.Sprintf("invalid history limit: %d", c.Dashboard.HistoryLimit), nil)
	}
	if c.Dashboard.AlertLimit <= 0 {
		return errors.NewConfigError(fmt.Sprintf("invalid alert limit: %d", c.Dashboard.AlertLimit), nil)
	}

	if err := validator.ValidateLanguage(c.Preferences.DefaultLanguage); err != nil {
		return errors.NewConfigError("invalid default language", err)
	}

	return nil
}

func (s *ServerConfigAdapter) GetListen() string             { return s.Listen }
func (s *ServerConfigAdapter) GetChatRatePerSecond() float64 { return s.ChatRatePerSecond }
func (s *ServerConfigAdapter) GetChatBurst() int             { return s.ChatBurst }
func (s *ServerConfigAdapter) GetTrustProxyHeaders() bool    { return s.TrustProxyHeaders }

func (f *FeedConfigAdapter) GetSource() string         { return f.Source }
func (f *FeedConfigAdapter) GetEmbeddedListen() string { return f.EmbeddedListen }
func (f *FeedConfigAdapter) GetLogAllMessages() bool   { return f.LogAllMessages }

func (m *MQTTConfigAdapter) GetHost() string             { return m.Host }
func (m *MQTTConfigAdapter) GetPort() int                { return m.Port }
func (m *MQTTConfigAdapter) GetTLS() bool                { return m.TLS }
func (m *MQTTConfigAdapter) GetAllowAnonymous() bool     { return m.AllowAnonymous }
func (m *MQTTConfigAdapter) GetTopicPrefix() string      { return m.TopicPrefix }
func (m *MQTTConfigAdapter) GetClientID() string         { return m.ClientID }
func (m *MQTTConfigAdapter) GetKeepAlive() time.Duration { return m.KeepAlive }
func (m *MQTTConfigAdapter) GetTimeout() time.Duration   { return m.Timeout }
func (m *MQTTConfigAdapter) GetUsers() []domain.UserAuth {
	users := make([]domain.UserAuth, len(m.Users))
	for i := range m.Users {
		users[i] = &m.Users[i]
	}
	return users
}

func (u *UserAuthAdapter) GetUsername() string { return u.Username }
func (u *UserAuthAdapter) GetPassword() string { return u.Password }

func (f *FirestoreConfigAdapter) GetProjectID() string       { return f.ProjectID }
func (f *FirestoreConfigAdapter) GetCredentialsFile() string { return f.CredentialsFile }

func (b *BackendConfigAdapter) GetBaseURL() string        { return b.BaseURL }
func (b *BackendConfigAdapter) GetTimeout() time.Duration { return b.Timeout }

func (d *DashboardConfigAdapter) GetHistoryLimit() int              { return d.HistoryLimit }
func (d *DashboardConfigAdapter) GetAlertLimit() int                { return d.AlertLimit }
func (d *DashboardConfigAdapter) GetNotificationTTL() time.Duration { return d.NotificationTTL }
func (d *DashboardConfigAdapter) GetLocation() *time.Location {
	if d.Location == nil {
		return time.Local
	}
	return d.Location
}

func (p *PreferencesConfigAdapter) GetFile() string            { return p.File }
func (p *PreferencesConfigAdapter) GetDefaultLanguage() string { return p.DefaultLanguage }
