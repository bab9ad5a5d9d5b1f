package standalone

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"sprouthub/pkg/assistant"
	"sprouthub/pkg/dashboard"
	"sprouthub/pkg/docstore"
	"sprouthub/pkg/domain"
	"sprouthub/pkg/errors"
	"sprouthub/pkg/factory"
	"sprouthub/pkg/i18n"
	"sprouthub/pkg/infrastructure"
	"sprouthub/pkg/library"
	"sprouthub/pkg/logger"
	"sprouthub/pkg/server"
)

type App struct {
	config     domain.Config
	factory    *factory.Factory
	logger     zerolog.Logger
	mu         sync.Mutex
	store      *docstore.Store
	mqttClient *infrastructure.MQTTClient
	broker     *infrastructure.EmbeddedBroker
	firestore  *infrastructure.FirestoreFeed
	prefs      domain.PreferenceStore
	locale     *i18n.Locale
	controller *dashboard.Controller
	library    *library.Library
	assistant  *assistant.Assistant
	server     *server.UnifiedServer
	cancel     context.CancelFunc
}

func NewApp(config domain.Config) *App {
	return &App{
		config:  config,
		factory: factory.NewFactory(config),
		logger:  logger.ComponentLogger("standalone-app"),
	}
}

func (a *App) Start(ctx context.Context) error {
	if err := a.config.Validate(); err != nil {
		return errors.NewConfigError("invalid configuration", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	prefs, err := a.factory.CreatePreferenceStore()
	if err != nil {
		return errors.NewConfigError("failed to open preferences", err)
	}
	a.prefs = prefs
	a.locale = a.factory.CreateLocale(prefs)

	feed, err := a.startFeed(ctx)
	if err != nil {
		return err
	}

	client := a.factory.CreateBackendClient()
	a.library = library.New(client, a.locale, 0)
	a.assistant = assistant.New(client, a.locale)
	a.locale.OnChange(func(string) { a.assistant.Reset() })

	a.controller = a.factory.CreateController(feed)
	if err := a.controller.Start(ctx); err != nil {
		return errors.NewProcessingError("failed to start dashboard", err)
	}

	a.server = a.factory.CreateServer(server.Dependencies{
		Dashboard: a.controller,
		Library:   a.library,
		Assistant: a.assistant,
		Backend:   client,
		Locale:    a.locale,
	})
	if err := a.server.Start(ctx); err != nil {
		return errors.NewNetworkError("failed to start http server", err)
	}

	go func() {
		if err := a.library.Refresh(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("knowledge library unavailable")
		}
	}()

	a.logger.Info().
		Str("address", a.server.Addr()).
		Str("feed", a.config.GetFeedConfig().GetSource()).
		Str("language", a.locale.Language()).
		Msg("sprouthub started")

	return nil
}

func (a *App) startFeed(ctx context.Context) (domain.Feed, error) {
	switch source := a.config.GetFeedConfig().GetSource(); source {
	case domain.FeedSourceMQTT:
		a.store = a.factory.CreateDocumentStore()
		a.mqttClient = a.factory.CreateMQTTClient(a.factory.CreateDocumentProcessor())
		if err := a.mqttClient.Connect(); err != nil {
			return nil, errors.NewNetworkError("failed to connect to mqtt", err)
		}
		return a.store, nil

	case domain.FeedSourceEmbedded:
		a.store = a.factory.CreateDocumentStore()
		broker, err := a.factory.CreateEmbeddedBroker(a.factory.CreateDocumentProcessor())
		if err != nil {
			return nil, errors.NewConfigError("failed to configure mqtt broker", err)
		}
		a.broker = broker
		if err := broker.Start(); err != nil {
			return nil, errors.NewNetworkError("failed to start mqtt broker", err)
		}
		return a.store, nil

	case domain.FeedSourceFirestore:
		fs, err := a.factory.CreateFirestoreFeed(ctx)
		if err != nil {
			return nil, errors.NewNetworkError("failed to connect to firestore", err)
		}
		a.firestore = fs
		return fs, nil

	default:
		return nil, errors.NewConfigError("unknown feed source "+source, nil)
	}
}

func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return ""
	}
	return a.server.Addr()
}

func (a *App) Run() error {
	if err := a.Start(context.Background()); err != nil {
		_ = a.Shutdown()
		return err
	}

	// Wait for a shutdown signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	return a.Shutdown()
}

func (a *App) Shutdown() error {
	a.logger.Info().Msg("shutting down")

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), domain.DefaultTimeout/domain.ShutdownTimeoutDivider)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.controller != nil {
		a.controller.Close()
	}

	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}

	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.logger.Error().Err(err).Msg("mqtt broker shutdown error")
		}
	}

	if a.firestore != nil {
		if err := a.firestore.Close(); err != nil {
			a.logger.Error().Err(err).Msg("firestore shutdown error")
		}
	}

	if a.store != nil {
		a.store.Close()
	}

	if a.prefs != nil {
		if err := a.prefs.Close(); err != nil {
			a.logger.Error().Err(err).Msg("preferences close error")
		}
	}

	a.logger.Info().Msg("shutdown completed")
	return nil
}
