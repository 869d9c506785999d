// Package settings carries the runtime settings shared by the bindery modules
// and the preferences store they persist user choices in.
package settings

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/bayleafwalker/bindery-compose/compose"
)

const (
	ModuleName    = "bindery.settings"
	ModuleVersion = "1.0.0"
)

// Settings is read from the environment once per process and supplied to a
// composition as an external object.
type Settings struct {
	Locale       string `env:"BINDERY_LOCALE" envDefault:"en-US"`
	OutputDevice string `env:"BINDERY_OUTPUT_DEVICE"`
	LibraryPath  string `env:"BINDERY_LIBRARY_PATH"`
	AdminAddress string `env:"BINDERY_ADMIN_ADDRESS"`
	// PreferencesPath is the YAML preferences file. Empty keeps preferences
	// in memory.
	PreferencesPath string `env:"BINDERY_PREFERENCES_PATH"`
}

// Load parses Settings from BINDERY_* environment variables.
func Load() (*Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &s, nil
}

var StoreContract = compose.ContractOf[Store](compose.AsSingleton())

func Module() *compose.Module {
	return &compose.Module{
		Name:      ModuleName,
		Version:   ModuleVersion,
		Plugin:    true,
		Contracts: []compose.Contract{StoreContract},
		Components: []compose.Component{
			compose.NewComponent(NewYAMLStore),
		},
	}
}
