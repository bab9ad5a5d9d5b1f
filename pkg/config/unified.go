package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sprouthub/pkg/adapters"
	"sprouthub/pkg/domain"
	"sprouthub/pkg/errors"
	"sprouthub/pkg/logger"
)

type UserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type UnifiedConfig struct {
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Server struct {
		Listen string `yaml:"listen"`
		// Honor X-Forwarded-For / X-Real-IP only behind a reverse proxy.
		TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
		Chat              struct {
			RatePerSecond float64 `yaml:"rate_per_second"`
			Burst         int     `yaml:"burst"`
		} `yaml:"chat"`
	} `yaml:"server"`

	Feed struct {
		Source string `yaml:"source"`
		MQTT   struct {
			Host           string       `yaml:"host"`
			Port           int          `yaml:"port"`
			TLS            bool         `yaml:"tls"`
			AllowAnonymous bool         `yaml:"allow_anonymous"`
			Username       string       `yaml:"username"`
			Password       string       `yaml:"password"`
			Users          []UserConfig `yaml:"users"`
			TopicPrefix    string       `yaml:"topic_prefix"`
			ClientID       string       `yaml:"client_id"`
			KeepAlive      string       `yaml:"keep_alive"`
			Timeout        string       `yaml:"timeout"`
		} `yaml:"mqtt"`
		Embedded struct {
			Listen string `yaml:"listen"`
		} `yaml:"embedded"`
		Firestore struct {
			ProjectID       string `yaml:"project_id"`
			CredentialsFile string `yaml:"credentials_file"`
		} `yaml:"firestore"`
		Debug struct {
			LogAllMessages bool `yaml:"log_all_messages"`
		} `yaml:"debug"`
	} `yaml:"feed"`

	Backend struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"backend"`

	Dashboard struct {
		HistoryLimit    int    `yaml:"history_limit"`
		AlertLimit      int    `yaml:"alert_limit"`
		NotificationTTL string `yaml:"notification_ttl"`
		Timezone        string `yaml:"timezone"`
	} `yaml:"dashboard"`

	Preferences struct {
		File            string `yaml:"file"`
		DefaultLanguage string `yaml:"default_language"`
	} `yaml:"preferences"`
}

// LoadUnifiedConfig reads filename over the defaults. A missing file yields
// the defaults.
func LoadUnifiedConfig(filename string) (domain.Config, error) {
	config := &UnifiedConfig{}
	setDefaults(config)

	if data, err := os.ReadFile(filename); err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.NewConfigError("failed to parse yaml", err)
		}
	}

	return convertToAdapter(config)
}

func setDefaults(config *UnifiedConfig) {
	config.Logging.Level = "info"
	config.Server.Listen = domain.DefaultListen
	config.Server.Chat.RatePerSecond = domain.DefaultChatRatePerSecond
	config.Server.Chat.Burst = domain.DefaultChatBurst
	config.Feed.Source = domain.FeedSourceMQTT
	config.Feed.MQTT.Host = "localhost"
	config.Feed.MQTT.Port = 1883
	config.Feed.MQTT.TopicPrefix = domain.DefaultTopicPrefix
	config.Feed.MQTT.KeepAlive = domain.DefaultMQTTKeepAlive.String()
	config.Feed.MQTT.Timeout = domain.DefaultTimeout.String()
	config.Feed.Embedded.Listen = domain.DefaultEmbeddedListen
	config.Backend.BaseURL = domain.DefaultBackendBaseURL
	config.Backend.Timeout = domain.DefaultBackendTimeout.String()
	config.Dashboard.HistoryLimit = domain.DefaultHistoryLimit
	config.Dashboard.AlertLimit = domain.DefaultAlertLimit
	config.Dashboard.NotificationTTL = domain.DefaultNotificationTTL.String()
	config.Preferences.File = "sprouthub.db"
	config.Preferences.DefaultLanguage = domain.LanguageEnglish
}

func parseDuration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func convertToAdapter(config *UnifiedConfig) (*adapters.ConfigAdapter, error) {
	logger.SetLogLevel(config.Logging.Level)

	location := time.Local
	if config.Dashboard.Timezone != "" {
		loc, err := time.LoadLocation(config.Dashboard.Timezone)
		if err != nil {
			return nil, errors.NewConfigError(fmt.Sprintf("unknown timezone %q", config.Dashboard.Timezone), err)
		}
		location = loc
	}

	users := make([]adapters.UserAuthAdapter, 0, len(config.Feed.MQTT.Users)+1)
	for _, u := range config.Feed.MQTT.Users {
		users = append(users, adapters.UserAuthAdapter{Username: u.Username, Password: u.Password})
	}
	if config.Feed.MQTT.Username != "" {
		users = append(users, adapters.UserAuthAdapter{
			Username: config.Feed.MQTT.Username,
			Password: config.Feed.MQTT.Password,
		})
	}

	return &adapters.ConfigAdapter{
		Server: adapters.ServerConfigAdapter{
			Listen:            config.Server.Listen,
			ChatRatePerSecond: config.Server.Chat.RatePerSecond,
			ChatBurst:         config.Server.Chat.Burst,
			TrustProxyHeaders: config.Server.TrustProxyHeaders,
		},
		Feed: adapters.FeedConfigAdapter{
			Source:         config.Feed.Source,
			EmbeddedListen: config.Feed.Embedded.Listen,
			LogAllMessages: config.Feed.Debug.LogAllMessages,
		},
		MQTT: adapters.MQTTConfigAdapter{
			Host:           config.Feed.MQTT.Host,
			Port:           config.Feed.MQTT.Port,
			TLS:            config.Feed.MQTT.TLS,
			AllowAnonymous: config.Feed.MQTT.AllowAnonymous,
			Users:          users,
			TopicPrefix:    config.Feed.MQTT.TopicPrefix,
			ClientID:       config.Feed.MQTT.ClientID,
			KeepAlive:      parseDuration(config.Feed.MQTT.KeepAlive, domain.DefaultMQTTKeepAlive),
			Timeout:        parseDuration(config.Feed.MQTT.Timeout, domain.DefaultTimeout),
		},
		Firestore: adapters.FirestoreConfigAdapter{
			ProjectID:       config.Feed.Firestore.ProjectID,
			CredentialsFile: config.Feed.Firestore.CredentialsFile,
		},
		Backend: adapters.BackendConfigAdapter{
			BaseURL: config.Backend.BaseURL,
			Timeout: parseDuration(config.Backend.Timeout, domain.DefaultBackendTimeout),
		},
		Dashboard: adapters.DashboardConfigAdapter{
			HistoryLimit:    config.Dashboard.HistoryLimit,
			AlertLimit:      config.Dashboard.AlertLimit,
			NotificationTTL: parseDuration(config.Dashboard.NotificationTTL, domain.DefaultNotificationTTL),
			Location:        location,
		},
		Preferences: adapters.PreferencesConfigAdapter{
			File:            config.Preferences.File,
			DefaultLanguage: config.Preferences.DefaultLanguage,
		},
	}, nil
}
