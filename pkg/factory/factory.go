package factory

import (
	"context"

	"sprouthub/pkg/application"
	"sprouthub/pkg/backend"
	"sprouthub/pkg/dashboard"
	"sprouthub/pkg/docstore"
	"sprouthub/pkg/domain"
	"sprouthub/pkg/hooks"
	"sprouthub/pkg/i18n"
	"sprouthub/pkg/infrastructure"
	"sprouthub/pkg/preferences"
	"sprouthub/pkg/server"
)

type Factory struct {
	config    domain.Config
	collector domain.MetricsCollector
	store     *docstore.Store
}

func NewFactory(config domain.Config) *Factory {
	return &Factory{config: config}
}

func (f *Factory) CreateMetricsCollector() domain.MetricsCollector {
	if f.collector == nil {
		f.collector = infrastructure.NewPrometheusCollectorWithMode(f.config.GetFeedConfig().GetSource())
	}
	return f.collector
}

func (f *Factory) CreateDocumentStore() *docstore.Store {
	if f.store == nil {
		f.store = docstore.New()
	}
	return f.store
}

func (f *Factory) CreateDocumentProcessor() domain.MessageProcessor {
	return application.NewDocumentProcessor(
		f.CreateDocumentStore(),
		f.config.GetMQTTConfig().GetTopicPrefix(),
		f.config.GetFeedConfig().GetLogAllMessages(),
	)
}

func (f *Factory) CreateMQTTClient(processor domain.MessageProcessor) *infrastructure.MQTTClient {
	return infrastructure.NewMQTTClient(f.config.GetMQTTConfig(), processor)
}

func (f *Factory) CreateEmbeddedBroker(processor domain.MessageProcessor) (*infrastructure.EmbeddedBroker, error) {
	hook := hooks.NewDocumentHook(hooks.DocumentHookConfig{
		TopicPrefix: f.config.GetMQTTConfig().GetTopicPrefix(),
	}, processor)
	return infrastructure.NewEmbeddedBroker(f.config.GetFeedConfig().GetEmbeddedListen(), f.config.GetMQTTConfig(), hook)
}

func (f *Factory) CreateFirestoreFeed(ctx context.Context) (*infrastructure.FirestoreFeed, error) {
	fs := f.config.GetFirestoreConfig()
	return infrastructure.NewFirestoreFeed(ctx, fs.GetProjectID(), fs.GetCredentialsFile())
}

func (f *Factory) CreateBackendClient() *backend.Client {
	bc := f.config.GetBackendConfig()
	return backend.NewClient(bc.GetBaseURL(), bc.GetTimeout()).WithMetrics(f.CreateMetricsCollector())
}

// CreatePreferenceStore opens the bolt file, or returns nil when no file is
// configured and the language is kept in memory only.
func (f *Factory) CreatePreferenceStore() (domain.PreferenceStore, error) {
	file := f.config.GetPreferencesConfig().GetFile()
	if file == "" {
		return nil, nil
	}

	store, err := preferences.NewBoltStore(file)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (f *Factory) CreateLocale(store domain.PreferenceStore) *i18n.Locale {
	return i18n.NewLocale(store, f.config.GetPreferencesConfig().GetDefaultLanguage())
}

func (f *Factory) CreateController(feed domain.Feed) *dashboard.Controller {
	dc := f.config.GetDashboardConfig()
	return dashboard.NewController(feed, dashboard.Options{
		HistoryLimit:    dc.GetHistoryLimit(),
		AlertLimit:      dc.GetAlertLimit(),
		NotificationTTL: dc.GetNotificationTTL(),
		Location:        dc.GetLocation(),
		Metrics:         f.CreateMetricsCollector(),
	})
}

func (f *Factory) CreateServer(deps server.Dependencies) *server.UnifiedServer {
	sc := f.config.GetServerConfig()
	deps.Collector = f.CreateMetricsCollector()
	return server.NewUnifiedServer(server.UnifiedServerConfig{
		Addr:              sc.GetListen(),
		RequestTimeout:    f.config.GetBackendConfig().GetTimeout(),
		ChatRatePerSecond: sc.GetChatRatePerSecond(),
		ChatBurst:         sc.GetChatBurst(),
		TrustProxyHeaders: sc.GetTrustProxyHeaders(),
	}, deps)
}
