// Package assistant keeps the agronomist chat log shown next to the dashboard.
package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/errors"
	"sprouthub/pkg/logger"
	"sprouthub/pkg/validator"
)

const MaxQuestionLength = 2000

type ChatBackend interface {
	Chat(ctx context.Context, question string) (domain.ChatAnswer, error)
}

type Translator interface {
	Language() string
	T(key string) string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role   Role      `json:"role"`
	Text   string    `json:"text"`
	Model  string    `json:"model,omitempty"`
	Failed bool      `json:"failed,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

type Assistant struct {
	mu       sync.Mutex
	backend  ChatBackend
	tr       Translator
	messages []Message
	now      func() time.Time
	logger   zerolog.Logger
}

func New(backend ChatBackend, tr Translator) *Assistant {
	a := &Assistant{
		backend: backend,
		tr:      tr,
		now:     time.Now,
		logger:  logger.ComponentLogger("assistant"),
	}
	a.messages = []Message{a.greeting()}
	return a
}

func (a *Assistant) Ask(ctx context.Context, question string) (Message, error) {
	question = validator.SanitizeString(question, MaxQuestionLength)
	if question == "" {
		return Message{}, errors.NewValidationError("question is required", nil)
	}

	a.append(Message{Role: RoleUser, Text: question, SentAt: a.now()})

	answer, err := a.backend.Chat(ctx, question)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Chat request failed")

		reply := Message{Role: RoleAssistant, Text: a.tr.T("aiConnectionError"), Failed: true, SentAt: a.now()}
		a.append(reply)
		return reply, err
	}

	reply := Message{
		Role:   RoleAssistant,
		Text:   strings.TrimSpace(answer.Answer),
		Model:  answer.Model,
		SentAt: a.now(),
	}
	a.append(reply)
	return reply, nil
}

func (a *Assistant) Messages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message(nil), a.messages...)
}

func (a *Assistant) Reset() {
	greeting := a.greeting()

	a.mu.Lock()
	a.messages = []Message{greeting}
	a.mu.Unlock()

	a.logger.Debug().Str("language", a.tr.Language()).Msg("Conversation reset")
}

func (a *Assistant) append(m Message) {
	a.mu.Lock()
	a.messages = append(a.messages, m)
	a.mu.Unlock()
}

func (a *Assistant) greeting() Message {
	return Message{Role: RoleAssistant, Text: a.tr.T("hello"), SentAt: a.now()}
}
