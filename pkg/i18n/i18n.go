// Package i18n holds the English and Filipino dictionaries and the persisted
// language preference.
package i18n

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/logger"
	"sprouthub/pkg/validator"
)

func T(lang, key string) string {
	if text, ok := dictionaries[lang][key]; ok {
		return text
	}
	return key
}

func StatusLabel(lang, label string) string {
	key, ok := statusKeys[label]
	if !ok {
		return label
	}
	return T(lang, key)
}

func Languages() []string {
	langs := make([]string, 0, len(dictionaries))
	for lang := range dictionaries {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

type Locale struct {
	mu        sync.RWMutex
	lang      string
	store     domain.PreferenceStore
	listeners []func(lang string)
	logger    zerolog.Logger
}

func NewLocale(store domain.PreferenceStore, defaultLang string) *Locale {
	l := &Locale{
		lang:   domain.LanguageEnglish,
		store:  store,
		logger: logger.ComponentLogger("i18n"),
	}
	if validator.ValidateLanguage(defaultLang) == nil {
		l.lang = defaultLang
	}

	if store == nil {
		return l
	}

	stored, err := store.GetLanguage()
	switch {
	case err != nil:
		l.logger.Warn().Err(err).Msg("Failed to read language preference")
	case stored == "":
	case validator.ValidateLanguage(stored) != nil:
		l.logger.Warn().Str("language", stored).Msg("Ignoring unsupported stored language")
	default:
		l.lang = stored
	}

	return l
}

func (l *Locale) Language() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lang
}

func (l *Locale) T(key string) string {
	return T(l.Language(), key)
}

// SetLanguage switches and persists the language. Listeners run after the
// change is stored.
func (l *Locale) SetLanguage(lang string) error {
	if err := validator.ValidateLanguage(lang); err != nil {
		return err
	}

	l.mu.Lock()
	if l.store != nil {
		if err := l.store.SetLanguage(lang); err != nil {
			l.mu.Unlock()
			return err
		}
	}
	changed := l.lang != lang
	l.lang = lang
	listeners := append([]func(string){}, l.listeners...)
	l.mu.Unlock()

	if changed {
		l.logger.Info().Str("language", lang).Msg("Language changed")
		for _, f := range listeners {
			f(lang)
		}
	}
	return nil
}

func (l *Locale) OnChange(f func(lang string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, f)
}
