// Package audio provides format detection, platform output drivers and the
// player that ties them together.
package audio

import (
	"context"

	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

const (
	ModuleName    = "bindery.audio"
	ModuleVersion = "1.2.0"
)

// Track is a playable file whose format has been detected.
type Track struct {
	Path   string
	Format string
	Size   int64
}

// Decoder recognises one audio container format.
type Decoder interface {
	Format() string
	// Extensions lists lower-case file extensions including the dot.
	Extensions() []string
	Detect(header []byte) bool
}

// OutputDriver sends tracks to a sound device.
type OutputDriver interface {
	Name() string
	Play(ctx context.Context, t Track) error
}

type Player interface {
	Open(path string) (Track, error)
	Play(ctx context.Context, t Track) error
	Output() string
	Volume() int
	SetVolume(v int) error
}

var (
	DecoderContract = compose.ContractOf[Decoder]()
	OutputContract  = compose.ContractOf[OutputDriver]()
	PlayerContract  = compose.ContractOf[Player](compose.AsSingleton())
)

func Module() *compose.Module {
	return &compose.Module{
		Name:    ModuleName,
		Version: ModuleVersion,
		Plugin:  true,
		Dependencies: []compose.Dependency{
			{Name: settings.ModuleName, Version: settings.ModuleVersion, Plugin: true},
		},
		Contracts: []compose.Contract{DecoderContract, OutputContract, PlayerContract},
		Components: []compose.Component{
			compose.NewComponent(NewWAVDecoder),
			compose.NewComponent(NewFLACDecoder),
			compose.NewComponent(NewOggDecoder),
			compose.NewComponent(NewMP3Decoder),
			compose.NewComponent(NewNullOutput),
			compose.NewComponent(NewALSAOutput, compose.OnPlatforms("linux")),
			compose.NewComponent(NewCoreAudioOutput, compose.OnPlatforms("darwin")),
			compose.NewComponent(NewPlayer),
		},
	}
}
