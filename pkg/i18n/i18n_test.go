package i18n

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprouthub/pkg/mocks"
)

func TestT(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "New Node Detected!", T("en", "newNodeDetected"))
	assert.Equal(t, "May Bagong Node na Nadetect!", T("fil", "newNodeDetected"))
	assert.Equal(t, "missingKey", T("en", "missingKey"))
	assert.Equal(t, "hello", T("de", "hello"))
}

func TestDictionariesHaveSameKeys(t *testing.T) {
	t.Parallel()

	for key := range dictionaries["en"] {
		_, ok := dictionaries["fil"][key]
		assert.True(t, ok, "fil is missing %q", key)
	}
	assert.Len(t, dictionaries["fil"], len(dictionaries["en"]))
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Kritikal", StatusLabel("fil", "Critical"))
	assert.Equal(t, "Walang Data", StatusLabel("fil", "No Data"))
	assert.Equal(t, "Critical", StatusLabel("en", "Critical"))
	assert.Equal(t, "Whatever", StatusLabel("fil", "Whatever"))
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"en", "fil"}, Languages())
}

func TestLocale_ReadsStoredPreference(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPreferenceStore{Language: "fil"}
	locale := NewLocale(store, "en")

	assert.Equal(t, "fil", locale.Language())
	assert.Equal(t, "Tama", locale.T("optimal"))
}

func TestLocale_DefaultsAndInvalidStored(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "en", NewLocale(nil, "xx").Language())
	assert.Equal(t, "fil", NewLocale(&mocks.MockPreferenceStore{}, "fil").Language())
	assert.Equal(t, "en", NewLocale(&mocks.MockPreferenceStore{Language: "jp"}, "en").Language())
	assert.Equal(t, "en", NewLocale(&mocks.MockPreferenceStore{Err: errors.New("io")}, "en").Language())
}

func TestLocale_SetLanguagePersistsAndNotifies(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPreferenceStore{}
	locale := NewLocale(store, "en")

	var got []string
	locale.OnChange(func(lang string) { got = append(got, lang) })

	require.NoError(t, locale.SetLanguage("fil"))
	assert.Equal(t, "fil", store.Language)
	assert.Equal(t, []string{"fil"}, got)

	require.NoError(t, locale.SetLanguage("fil"))
	assert.Equal(t, 2, store.Sets)
	assert.Len(t, got, 1)

	assert.Error(t, locale.SetLanguage("de"))
	assert.Equal(t, "fil", locale.Language())
}

func TestLocale_SetLanguageStoreFailure(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPreferenceStore{}
	locale := NewLocale(store, "en")
	store.Err = errors.New("disk full")

	assert.Error(t, locale.SetLanguage("fil"))
	assert.Equal(t, "en", locale.Language())
}
