package localization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

func sources() []PhraseSource {
	return []PhraseSource{NewEnglish(), NewGerman()}
}

func TestCatalogLocalizer_MatchesLocale(t *testing.T) {
	cases := []struct {
		locale string
		want   language.Tag
		phrase string
	}{
		{"en-US", language.English, "3 tracks in library"},
		{"de-AT", language.German, "3 Titel in der Bibliothek"},
		{"de", language.German, "3 Titel in der Bibliothek"},
		{"ja-JP", language.English, "3 tracks in library"},
		{"", language.English, "3 tracks in library"},
	}
	for _, tc := range cases {
		l, err := NewCatalogLocalizer(sources(), &settings.Settings{Locale: tc.locale})
		require.NoError(t, err, tc.locale)
		assert.Equal(t, tc.want, l.Language(), tc.locale)
		assert.Equal(t, tc.phrase, l.Translate(KeyLibraryTracks, 3), tc.locale)
	}
}

func TestCatalogLocalizer_UnknownKey(t *testing.T) {
	l, err := NewCatalogLocalizer(sources(), &settings.Settings{Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "no such phrase", l.Translate("no such phrase"))
}

type override struct{}

func (override) Language() language.Tag { return language.English }

func (override) Phrases() map[string]string {
	return map[string]string{KeyVolume: "Loudness %d%%"}
}

func TestCatalogLocalizer_LaterSourceOverrides(t *testing.T) {
	l, err := NewCatalogLocalizer(append(sources(), override{}), &settings.Settings{Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "Loudness 40%", l.Translate(KeyVolume, 40))
	assert.Equal(t, "Player ready on output null", l.Translate(KeyPlayerReady, "null"))
}

func TestCatalogLocalizer_Errors(t *testing.T) {
	_, err := NewCatalogLocalizer(nil, &settings.Settings{})
	assert.Error(t, err)

	_, err = NewCatalogLocalizer(sources(), &settings.Settings{Locale: "not a locale!"})
	assert.Error(t, err)
}

func TestModule_CollectsPhraseSources(t *testing.T) {
	catalog, err := compose.NewCatalog(settings.Module(), Module())
	require.NoError(t, err)

	engine := compose.NewEngine(catalog)
	engine.Supply(&settings.Settings{Locale: "de-DE"})
	engine.QueueLoad(ModuleName)
	m, err := engine.Execute(context.Background())
	require.NoError(t, err)

	assert.Len(t, compose.TryGetImplementations[PhraseSource](m), 2)
	l, ok := compose.TryGetSingleton[Localizer](m)
	require.True(t, ok)
	assert.Equal(t, "Lautstärke 50%", l.Translate(KeyVolume, 50))
}
