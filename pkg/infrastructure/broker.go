package infrastructure

import (
	"fmt"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/rs/zerolog"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/logger"
)

// EmbeddedBroker runs an in-process MQTT broker that sensor gateways publish
// documents to. With an empty listen address no TCP listener is opened and
// documents can only arrive through Publish.
type EmbeddedBroker struct {
	server *mqtt.Server
	listen string
	logger zerolog.Logger
}

func NewEmbeddedBroker(listen string, config domain.MQTTConfig, hook mqtt.Hook) (*EmbeddedBroker, error) {
	b := &EmbeddedBroker{
		server: mqtt.New(&mqtt.Options{InlineClient: true}),
		listen: listen,
		logger: logger.ComponentLogger("embedded-broker"),
	}

	if err := b.addAuth(config); err != nil {
		return nil, err
	}

	if hook != nil {
		if err := b.server.AddHook(hook, nil); err != nil {
			return nil, fmt.Errorf("failed to add hook %s: %w", hook.ID(), err)
		}
	}

	if listen != "" {
		tcp := listeners.NewTCP(listeners.Config{ID: "tcp", Address: listen})
		if err := b.server.AddListener(tcp); err != nil {
			return nil, fmt.Errorf("failed to add listener: %w", err)
		}
	}

	return b, nil
}

func (b *EmbeddedBroker) addAuth(config domain.MQTTConfig) error {
	var rules auth.AuthRules
	if config != nil && !config.GetAllowAnonymous() {
		for _, user := range config.GetUsers() {
			rules = append(rules, auth.AuthRule{
				Username: auth.RString(user.GetUsername()),
				Password: auth.RString(user.GetPassword()),
				Allow:    true,
			})
		}
	}

	if len(rules) == 0 {
		if err := b.server.AddHook(new(auth.AllowHook), nil); err != nil {
			return fmt.Errorf("failed to add anonymous auth: %w", err)
		}
		return nil
	}

	err := b.server.AddHook(new(auth.Hook), &auth.Options{
		Ledger: &auth.Ledger{Auth: rules},
	})
	if err != nil {
		return fmt.Errorf("failed to add auth: %w", err)
	}
	return nil
}

func (b *EmbeddedBroker) Start() error {
	if err := b.server.Serve(); err != nil {
		return fmt.Errorf("mqtt broker failed to start: %w", err)
	}
	b.logger.Info().Str("address", b.listen).Msg("mqtt broker started")
	return nil
}

func (b *EmbeddedBroker) Publish(topic string, payload []byte, retain bool) error {
	return b.server.Publish(topic, payload, retain, 0)
}

func (b *EmbeddedBroker) Close() error {
	b.logger.Info().Msg("shutting down mqtt broker")
	return b.server.Close()
}
