package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/errors"
	"sprouthub/pkg/logger"
	"sprouthub/pkg/validator"
)

// timeFields are converted from RFC3339 strings to time.Time so that the store
// orders them chronologically.
var timeFields = map[string]bool{
	domain.FieldTimestamp: true,
	domain.FieldCreatedAt: true,
	"last_seen":           true,
	"updated_at":          true,
	"resolved_at":         true,
}

// DocumentProcessor turns document messages published over MQTT into writes
// on a document store. An empty payload deletes the document.
type DocumentProcessor struct {
	writer         domain.DocumentWriter
	logger         zerolog.Logger
	topicPrefix    string
	logAllMessages bool
}

func NewDocumentProcessor(writer domain.DocumentWriter, topicPrefix string, logAllMessages bool) *DocumentProcessor {
	return &DocumentProcessor{
		writer:         writer,
		logger:         logger.ComponentLogger("document-processor"),
		topicPrefix:    topicPrefix,
		logAllMessages: logAllMessages,
	}
}

func (p *DocumentProcessor) ProcessMessage(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	collection, id, err := validator.ParseDocumentTopic(topic, p.topicPrefix)
	if err != nil {
		p.logger.Warn().Err(err).Str("topic", topic).Msg("invalid topic")
		return errors.NewValidationError("invalid topic", err)
	}

	if len(payload) == 0 {
		if err := p.writer.Delete(collection, id); err != nil {
			return errors.NewProcessingError("document delete failed", err)
		}
		p.logger.Debug().Str("collection", collection).Str("id", id).Msg("deleted")
		return nil
	}

	if err := validator.ValidateDocumentPayload(payload); err != nil {
		if strings.Contains(err.Error(), "not JSON") {
			p.logger.Debug().Str("topic", topic).Msg("ignoring non-JSON message")
			return nil
		}
		p.logger.Warn().Err(err).Str("topic", topic).Msg("invalid payload")
		return errors.NewValidationError("invalid payload", err)
	}

	if p.logAllMessages {
		p.logger.Debug().Str("topic", topic).RawJSON("payload", payload).Msg("received")
	}

	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Msg("failed to parse document")
		return errors.NewProcessingError("json parsing failed", err)
	}
	convertTimes(data)

	if err := p.writer.Put(collection, id, data); err != nil {
		return errors.NewProcessingError("document write failed", err)
	}
	return nil
}

func convertTimes(data map[string]any) {
	for key, value := range data {
		switch v := value.(type) {
		case string:
			if !timeFields[key] {
				continue
			}
			if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
				data[key] = ts
			}
		case map[string]any:
			convertTimes(v)
		}
	}
}
