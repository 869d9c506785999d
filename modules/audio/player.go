package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

var ErrUnknownFormat = errors.New("audio: unknown format")

// DefaultPlayer detects formats with the registered decoders and plays through
// one output driver. The output is chosen from the BINDERY_OUTPUT_DEVICE
// setting, then the stored preference, then the first driver built.
type DefaultPlayer struct {
	decoders []Decoder
	output   OutputDriver
	store    settings.Store

	mu     sync.Mutex
	volume int
}

func NewPlayer(decoders []Decoder, outputs []OutputDriver, cfg *settings.Settings, store settings.Store) (*DefaultPlayer, error) {
	prefs, err := store.Load()
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, errors.New("audio: no output driver is available on this platform")
	}

	wanted := cfg.OutputDevice
	if wanted == "" {
		wanted = prefs.OutputDevice
	}
	output := outputs[0]
	if wanted != "" {
		output = nil
		names := make([]string, 0, len(outputs))
		for _, o := range outputs {
			names = append(names, o.Name())
			if o.Name() == wanted {
				output = o
			}
		}
		if output == nil {
			return nil, fmt.Errorf("audio: output %q is not available (have %s)", wanted, strings.Join(names, ", "))
		}
	}

	return &DefaultPlayer{
		decoders: decoders,
		output:   output,
		store:    store,
		volume:   prefs.Volume,
	}, nil
}

// Detect reads the header of r and returns the matching format.
func (p *DefaultPlayer) Detect(r io.Reader) (string, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("audio: read header: %w", err)
	}
	header = header[:n]
	for _, d := range p.decoders {
		if d.Detect(header) {
			return d.Format(), nil
		}
	}
	return "", ErrUnknownFormat
}

func (p *DefaultPlayer) Open(path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return Track{}, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Track{}, fmt.Errorf("audio: stat %s: %w", path, err)
	}
	format, err := p.Detect(f)
	if err != nil {
		return Track{}, fmt.Errorf("%w: %s", err, path)
	}
	return Track{Path: path, Format: format, Size: info.Size()}, nil
}

func (p *DefaultPlayer) Play(ctx context.Context, t Track) error {
	if t.Format == "" {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, t.Path)
	}
	log.FromContext(ctx).Info("play", "path", t.Path, "format", t.Format, "output", p.output.Name(), "volume", p.Volume())
	return p.output.Play(ctx, t)
}

func (p *DefaultPlayer) Output() string {
	return p.output.Name()
}

func (p *DefaultPlayer) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume changes the volume and persists it as a preference.
func (p *DefaultPlayer) SetVolume(v int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prefs, err := p.store.Load()
	if err != nil {
		return err
	}
	prefs.Volume = v
	if err := p.store.Save(prefs); err != nil {
		return err
	}
	p.volume = v
	return nil
}
