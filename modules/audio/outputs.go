package audio

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// NullOutput discards audio. It is available everywhere and remembers what it
// was asked to play.
type NullOutput struct {
	mu     sync.Mutex
	played []Track
}

func NewNullOutput() *NullOutput { return &NullOutput{} }

func (*NullOutput) Name() string { return "null" }

func (o *NullOutput) Play(ctx context.Context, t Track) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.played = append(o.played, t)
	return nil
}

func (o *NullOutput) Played() []Track {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Track(nil), o.played...)
}

func (*NullOutput) HealthName() string                { return "audio.output.null" }
func (*NullOutput) CheckHealth(context.Context) error { return nil }

// commandOutput plays through a system command that takes the file path as
// its last argument.
type commandOutput struct {
	name    string
	command string
	args    []string
}

func (o *commandOutput) Name() string { return o.name }

func (o *commandOutput) Play(ctx context.Context, t Track) error {
	path, err := exec.LookPath(o.command)
	if err != nil {
		return fmt.Errorf("audio: %s output unavailable: %w", o.name, err)
	}
	args := append(append([]string(nil), o.args...), t.Path)
	log.FromContext(ctx).V(1).Info("playing track", "output", o.name, "path", t.Path, "format", t.Format)
	if out, err := exec.CommandContext(ctx, path, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("audio: %s: %w: %s", o.command, err, out)
	}
	return nil
}

func (o *commandOutput) HealthName() string { return "audio.output." + o.name }

func (o *commandOutput) CheckHealth(context.Context) error {
	if _, err := exec.LookPath(o.command); err != nil {
		return fmt.Errorf("audio: %s output unavailable: %w", o.name, err)
	}
	return nil
}

// ALSAOutput plays through aplay.
type ALSAOutput struct {
	commandOutput
}

func NewALSAOutput() *ALSAOutput {
	return &ALSAOutput{commandOutput{name: "alsa", command: "aplay", args: []string{"-q"}}}
}

// CoreAudioOutput plays through afplay.
type CoreAudioOutput struct {
	commandOutput
}

func NewCoreAudioOutput() *CoreAudioOutput {
	return &CoreAudioOutput{commandOutput{name: "coreaudio", command: "afplay"}}
}
