package hooks

import (
	"context"
	"strings"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/rs/zerolog"

	"sprouthub/pkg/domain"
	apperrors "sprouthub/pkg/errors"
	"sprouthub/pkg/logger"
	"sprouthub/pkg/validator"
)

type DocumentHookConfig struct {
	TopicPrefix string
}

type DocumentHook struct {
	mqtt.HookBase

	processor domain.MessageProcessor
	pattern   string
	logger    zerolog.Logger
}

func NewDocumentHook(cfg DocumentHookConfig, processor domain.MessageProcessor) *DocumentHook {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = domain.DefaultTopicPrefix
	}
	if !strings.HasSuffix(cfg.TopicPrefix, "/") {
		cfg.TopicPrefix += "/"
	}

	return &DocumentHook{
		processor: processor,
		pattern:   cfg.TopicPrefix + domain.DocumentTopicSegment + "/#",
		logger:    logger.ComponentLogger("document-hook"),
	}
}

func (h *DocumentHook) ID() string {
	return "sprouthub-documents"
}

func (h *DocumentHook) Provides(b byte) bool {
	return b == mqtt.OnPublish || b == mqtt.OnConnect || b == mqtt.OnDisconnect
}

func (h *DocumentHook) OnConnect(cl *mqtt.Client, pk packets.Packet) error {
	h.logger.Debug().
		Str("client_id", cl.ID).
		Str("remote_addr", cl.Net.Remote).
		Uint8("packet_type", pk.FixedHeader.Type).
		Msg("client connected")
	return nil
}

func (h *DocumentHook) OnDisconnect(cl *mqtt.Client, err error, expire bool) {
	logEvent := h.logger.Debug().
		Str("client_id", cl.ID).
		Str("remote_addr", cl.Net.Remote).
		Bool("expire", expire)

	if err != nil {
		logEvent = logEvent.Err(err)
	}
	logEvent.Msg("client disconnected")
}

func (h *DocumentHook) OnPublish(_ *mqtt.Client, pk packets.Packet) (packets.Packet, error) {
	if !validator.MatchesMQTTPattern(pk.TopicName, h.pattern) {
		return pk, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), domain.DefaultTimeout)
	defer cancel()

	if err := h.processor.ProcessMessage(ctx, pk.TopicName, pk.Payload); err != nil {
		appErr := apperrors.NewProcessingError("document processing failed", err)
		h.logger.Error().Err(appErr).Str("topic", pk.TopicName).Msg("document processing failed")
	}

	return pk, nil
}
