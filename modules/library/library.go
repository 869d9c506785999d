// Package library indexes playable tracks in folders and keeps the index up
// to date while the folder changes.
package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/modules/audio"
	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

const (
	ModuleName    = "bindery.library"
	ModuleVersion = "1.0.0"
)

// Source is a collection of tracks.
type Source interface {
	Name() string
	Tracks() []audio.Track
}

var SourceContract = compose.ContractOf[Source]()

func Module() *compose.Module {
	return &compose.Module{
		Name:    ModuleName,
		Version: ModuleVersion,
		Plugin:  true,
		Dependencies: []compose.Dependency{
			{Name: audio.ModuleName, Version: "1.0.0", Plugin: true},
			{Name: settings.ModuleName, Version: settings.ModuleVersion, Plugin: true},
		},
		Contracts: []compose.Contract{SourceContract},
		Components: []compose.Component{
			compose.NewComponent(NewFolderLibrary),
		},
	}
}

// FolderLibrary indexes the files under one root whose extension a decoder
// claims.
type FolderLibrary struct {
	root    string
	formats map[string]string

	mu     sync.RWMutex
	tracks map[string]audio.Track
}

func NewFolderLibrary(cfg *settings.Settings, decoders []audio.Decoder) (*FolderLibrary, error) {
	l := &FolderLibrary{
		root:    cfg.LibraryPath,
		formats: map[string]string{},
		tracks:  map[string]audio.Track{},
	}
	for _, d := range decoders {
		for _, ext := range d.Extensions() {
			l.formats[strings.ToLower(ext)] = d.Format()
		}
	}
	if l.root == "" {
		return l, nil
	}
	if err := l.scan(l.root); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FolderLibrary) Name() string {
	return "folder:" + l.root
}

// Tracks returns the indexed tracks sorted by path.
func (l *FolderLibrary) Tracks() []audio.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]audio.Track, 0, len(l.tracks))
	for _, t := range l.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (l *FolderLibrary) HealthName() string {
	return "library.folder"
}

func (l *FolderLibrary) CheckHealth(context.Context) error {
	if l.root == "" {
		return nil
	}
	info, err := os.Stat(l.root)
	if err != nil {
		return fmt.Errorf("library: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("library: %s is not a directory", l.root)
	}
	return nil
}

func (l *FolderLibrary) scan(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("library: scan %s: %w", path, err)
		}
		if !d.IsDir() {
			l.index(path)
		}
		return nil
	})
}

// index records path if its extension is known. It reports whether the
// index changed.
func (l *FolderLibrary) index(path string) bool {
	format, ok := l.formats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracks[path] = audio.Track{Path: path, Format: format, Size: info.Size()}
	return true
}

func (l *FolderLibrary) forget(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := path + string(filepath.Separator)
	for p := range l.tracks {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(l.tracks, p)
		}
	}
}

// Watch keeps the index in sync with the folder until ctx is done.
func (l *FolderLibrary) Watch(ctx context.Context) error {
	if l.root == "" {
		return nil
	}
	logger := log.FromContext(ctx).WithValues("root", l.root)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("library: create watcher: %w", err)
	}
	defer w.Close()

	err = filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("library: watch %s: %w", l.root, err)
	}
	logger.Info("watching library folder")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			l.apply(w, ev, logger)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error(err, "library watcher error")
		}
	}
}

type watchAdder interface {
	Add(name string) error
}

func (l *FolderLibrary) apply(w watchAdder, ev fsnotify.Event, logger logr.Logger) {
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		l.forget(ev.Name)
		logger.V(1).Info("path removed", "path", ev.Name)
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if errors.Is(err, fs.ErrNotExist) {
			l.forget(ev.Name)
			return
		}
		if err == nil && info.IsDir() {
			if err := w.Add(ev.Name); err == nil {
				_ = l.scan(ev.Name)
			}
			return
		}
		if l.index(ev.Name) {
			logger.Info("track indexed", "path", ev.Name)
		}
	}
}
