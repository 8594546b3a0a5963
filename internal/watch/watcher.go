// Package watch renders replay files as they appear in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-mine-replay/internal/application/pipeline"
	"github.com/penwyp/go-mine-replay/internal/util"
)

// DefaultExtension is the suffix of files the watcher picks up.
const DefaultExtension = ".replay"

// Renderer turns replay text into image bytes.
type Renderer interface {
	Render(text string, animated bool) (*pipeline.Result, error)
}

// Config controls which files are watched and where images go.
type Config struct {
	Dir       string
	OutDir    string // defaults to Dir
	Extension string // defaults to DefaultExtension
	Animated  bool
}

// Validate fills defaults and checks the directories.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.New("watch directory is required")
	}
	info, err := os.Stat(c.Dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory %s is not a directory", c.Dir)
	}
	if c.OutDir == "" {
		c.OutDir = c.Dir
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	if !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}
	return os.MkdirAll(c.OutDir, 0755)
}

// Outcome reports what happened to one replay file.
type Outcome struct {
	Source  string
	Output  string
	Mode    string
	Bytes   int
	Skipped bool // contents unchanged since the last render
	Err     error
}

// Watcher renders matching files on create and write events.
type Watcher struct {
	config   Config
	renderer Renderer
	watcher  *fsnotify.Watcher
	outcomes chan Outcome

	mu   sync.Mutex
	seen map[string]string // source path -> fingerprint of last rendered contents
}

// New validates cfg and starts watching its directory.
func New(cfg Config, renderer Renderer) (*Watcher, error) {
	if renderer == nil {
		return nil, errors.New("watch: renderer is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		config:   cfg,
		renderer: renderer,
		watcher:  fsw,
		outcomes: make(chan Outcome, 100),
		seen:     make(map[string]string),
	}, nil
}

// Outcomes delivers one Outcome per processed file. Run stops sending when
// its context is cancelled.
func (w *Watcher) Outcomes() <-chan Outcome {
	return w.outcomes
}

// Run renders the files already present, then follows filesystem events
// until ctx is done. The outcome channel is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.outcomes)

	for _, outcome := range w.Scan() {
		if !w.emit(ctx, outcome) {
			return ctx.Err()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.matches(event.Name) || !event.Has(fsnotify.Create|fsnotify.Write) {
				continue
			}
			if !w.emit(ctx, w.Process(event.Name)) {
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			util.LogErrorf("File watching error: %v", err)
		}
	}
}

// Scan renders every matching file currently in the directory.
func (w *Watcher) Scan() []Outcome {
	entries, err := os.ReadDir(w.config.Dir)
	if err != nil {
		util.LogErrorf("Failed to list %s: %v", w.config.Dir, err)
		return nil
	}

	var outcomes []Outcome
	for _, entry := range entries {
		path := filepath.Join(w.config.Dir, entry.Name())
		if entry.IsDir() || !w.matches(path) {
			continue
		}
		outcomes = append(outcomes, w.Process(path))
	}
	return outcomes
}

// Process renders one replay file unless its contents were already rendered.
func (w *Watcher) Process(path string) Outcome {
	outcome := Outcome{Source: path}

	data, err := os.ReadFile(path)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	fingerprint := util.Fingerprint(data)
	w.mu.Lock()
	unchanged := w.seen[path] == fingerprint
	w.mu.Unlock()
	if unchanged {
		outcome.Skipped = true
		return outcome
	}

	result, err := w.renderer.Render(strings.TrimSpace(string(data)), w.config.Animated)
	if err != nil {
		// A half-written file fails to parse; the next write event retries it.
		outcome.Err = err
		return outcome
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outcome.Output = filepath.Join(w.config.OutDir, base+result.Mode.Extension())
	outcome.Mode = result.Mode.String()
	outcome.Bytes = len(result.Bytes)
	if err := writeAtomic(outcome.Output, result.Bytes); err != nil {
		outcome.Err = err
		return outcome
	}

	w.mu.Lock()
	w.seen[path] = fingerprint
	w.mu.Unlock()

	util.LogDebugf("Rendered %s to %s (%s)", path, outcome.Output, util.FormatBytes(outcome.Bytes))
	return outcome
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) matches(path string) bool {
	return strings.EqualFold(filepath.Ext(path), w.config.Extension)
}

func (w *Watcher) emit(ctx context.Context, outcome Outcome) bool {
	select {
	case w.outcomes <- outcome:
		return true
	case <-ctx.Done():
		return false
	}
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".render-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
