// Package localization turns phrase keys into text in the configured language.
package localization

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

const (
	ModuleName    = "bindery.localization"
	ModuleVersion = "1.0.0"
)

// PhraseSource contributes translated phrases for one language. Several
// sources may cover the same language; later sources override earlier ones.
type PhraseSource interface {
	Language() language.Tag
	Phrases() map[string]string
}

type Localizer interface {
	Language() language.Tag
	Translate(key string, args ...any) string
}

var (
	PhraseSourceContract = compose.ContractOf[PhraseSource]()
	LocalizerContract    = compose.ContractOf[Localizer](compose.AsSingleton())
)

func Module() *compose.Module {
	return &compose.Module{
		Name:    ModuleName,
		Version: ModuleVersion,
		Plugin:  true,
		Dependencies: []compose.Dependency{
			{Name: settings.ModuleName, Version: settings.ModuleVersion, Plugin: true},
		},
		Contracts: []compose.Contract{PhraseSourceContract, LocalizerContract},
		Components: []compose.Component{
			compose.NewComponent(NewEnglish),
			compose.NewComponent(NewGerman),
			compose.NewComponent(NewCatalogLocalizer),
		},
	}
}

// CatalogLocalizer serves the phrases of the supported language closest to
// the configured locale. The first source's language is the fallback.
type CatalogLocalizer struct {
	tag     language.Tag
	printer *message.Printer
}

func NewCatalogLocalizer(sources []PhraseSource, cfg *settings.Settings) (*CatalogLocalizer, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("localization: no phrase sources")
	}

	b := catalog.NewBuilder(catalog.Fallback(sources[0].Language()))
	var supported []language.Tag
	seen := map[language.Tag]bool{}
	for _, src := range sources {
		tag := src.Language()
		if !seen[tag] {
			seen[tag] = true
			supported = append(supported, tag)
		}
		for key, msg := range src.Phrases() {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("localization: %s %q: %w", tag, key, err)
			}
		}
	}

	tag := supported[0]
	if cfg.Locale != "" {
		requested, err := language.Parse(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("localization: locale %q: %w", cfg.Locale, err)
		}
		_, index, confidence := language.NewMatcher(supported).Match(requested)
		if confidence != language.No {
			tag = supported[index]
		}
	}

	return &CatalogLocalizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b)),
	}, nil
}

func (l *CatalogLocalizer) Language() language.Tag {
	return l.tag
}

// Translate formats the phrase for key with args. Unknown keys are formatted
// as is.
func (l *CatalogLocalizer) Translate(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}
