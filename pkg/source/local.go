package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/haview/pkg/errors"
	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/haproxy"
)

// DefaultDebounce collapses the burst of events an editor produces when it
// saves a file.
const DefaultDebounce = 150 * time.Millisecond

// LocalSource reads and writes an HAProxy configuration file.
type LocalSource struct {
	path     string
	debounce time.Duration
	logger   *log.Logger
}

// LocalOption configures a LocalSource.
type LocalOption func(*LocalSource)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) LocalOption {
	return func(s *LocalSource) { s.debounce = d }
}

// WithLocalLogger sets the logger.
func WithLocalLogger(l *log.Logger) LocalOption {
	return func(s *LocalSource) { s.logger = l }
}

// NewLocalSource returns a source for the configuration file at path.
func NewLocalSource(path string, opts ...LocalOption) *LocalSource {
	s := &LocalSource{path: path, debounce: DefaultDebounce, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the configuration file path.
func (s *LocalSource) Path() string { return s.path }

// LoadGraph parses the configuration file. A missing file is an empty graph.
// Text the parser cannot read fails with an INVALID_FORMAT error.
func (s *LocalSource) LoadGraph(ctx context.Context) (graph.Graph, error) {
	text, err := s.LoadConfigText(ctx)
	if err != nil {
		return graph.Graph{}, err
	}
	g, err := haproxy.Parse(text)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return g, nil
}

// LoadConfigText reads the configuration file. A missing file reads as "".
func (s *LocalSource) LoadConfigText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "read %s", s.path)
	}
	return string(data), nil
}

// SaveConfigText replaces the configuration file atomically.
func (s *LocalSource) SaveConfigText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", s.path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", s.path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", s.path)
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", s.path)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", s.path)
	}
	return nil
}

// Watch reports changes of the configuration file until ctx is done. The
// parent directory is watched so that editors replacing the file by rename
// are noticed. The channel is closed when watching stops.
func (s *LocalSource) Watch(ctx context.Context) (<-chan Event, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "watch %s", s.path)
	}
	abs, err := filepath.Abs(s.path)
	if err != nil {
		w.Close()
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "watch %s", s.path)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "watch %s", s.path)
	}

	out := make(chan Event, 1)
	go s.watchLoop(ctx, w, abs, out)
	return out, nil
}

func (s *LocalSource) watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, out chan<- Event) {
	defer close(out)
	defer w.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	pending := false

	send := func(ev Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			s.logger.Debug("config file event", "op", ev.Op.String(), "path", ev.Name)
			pending = true
			timer.Reset(s.debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if !send(Event{Path: path, Err: err}) {
				return
			}
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if !send(Event{Path: path}) {
				return
			}
		}
	}
}

var (
	_ Source  = (*LocalSource)(nil)
	_ Watcher = (*LocalSource)(nil)
)
