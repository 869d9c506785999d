// Package builtin lists the modules compiled into the bindery binary.
package builtin

import (
	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/modules/admin"
	"github.com/bayleafwalker/bindery-compose/modules/audio"
	"github.com/bayleafwalker/bindery-compose/modules/library"
	"github.com/bayleafwalker/bindery-compose/modules/localization"
	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

const (
	PlayerModuleName    = "bindery.player"
	PlayerModuleVersion = "1.0.0"
)

// Modules returns fresh declarations of every built-in module.
func Modules() []*compose.Module {
	return []*compose.Module{
		settings.Module(),
		audio.Module(),
		library.Module(),
		localization.Module(),
		admin.Module(),
		PlayerModule(),
	}
}

func Catalog() (*compose.Catalog, error) {
	return compose.NewCatalog(Modules()...)
}

// PlayerModule is the application root. Loading it pulls in every other
// built-in module through plugin dependencies.
func PlayerModule() *compose.Module {
	return &compose.Module{
		Name:    PlayerModuleName,
		Version: PlayerModuleVersion,
		Dependencies: []compose.Dependency{
			{Name: library.ModuleName, Version: library.ModuleVersion, Plugin: true},
			{Name: localization.ModuleName, Version: localization.ModuleVersion, Plugin: true},
			{Name: admin.ModuleName, Version: admin.ModuleVersion, Plugin: true},
		},
		Components: []compose.Component{
			compose.NewComponent(NewStatus, compose.Explicit()),
		},
	}
}

// Status summarises the composed player in the configured language.
type Status struct {
	localizer localization.Localizer
	player    audio.Player
	sources   []library.Source
}

func NewStatus(l localization.Localizer, p audio.Player, sources []library.Source) *Status {
	return &Status{localizer: l, player: p, sources: sources}
}

func (s *Status) Tracks() int {
	n := 0
	for _, src := range s.sources {
		n += len(src.Tracks())
	}
	return n
}

func (s *Status) Lines() []string {
	return []string{
		s.localizer.Translate(localization.KeyPlayerReady, s.player.Output()),
		s.localizer.Translate(localization.KeyVolume, s.player.Volume()),
		s.localizer.Translate(localization.KeyLibraryTracks, s.Tracks()),
	}
}
