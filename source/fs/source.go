// Package fs provides a file system based document source.
//
// Saves are atomic (temporary file + rename) and serialized with an advisory
// flock on the target, so a concurrent exporter never observes a torn file.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/yacchi/umbra/source"
	"github.com/yacchi/umbra/types"
	"github.com/yacchi/umbra/watcher"
)

type lockFile interface {
	Stat() (os.FileInfo, error)
	ReadAt(p []byte, off int64) (n int, err error)
	Close() error
	Fd() uintptr
}

type tempFile interface {
	Write(p []byte) (n int, err error)
	Sync() error
	Close() error
	Name() string
}

var (
	userHomeDir  = os.UserHomeDir
	osReadFile   = os.ReadFile
	osMkdirAll   = os.MkdirAll
	osChmod      = os.Chmod
	osRename     = os.Rename
	osRemove     = os.Remove
	fileLockFunc = fileLock

	openFile = func(name string, flag int, perm os.FileMode) (lockFile, error) {
		return os.OpenFile(name, flag, perm)
	}
	createTemp = func(dir, pattern string) (tempFile, error) {
		return os.CreateTemp(dir, pattern)
	}
)

// fileLock attempts to acquire an exclusive lock on the given file descriptor.
// If the filesystem does not support locking, it returns a no-op unlock and
// a nil error.
func fileLock(fd int) (unlock func(), err error) {
	if err := flockExclusive(fd); err != nil {
		if isLockNotSupportedError(err) {
			return func() {}, nil
		}
		return nil, err
	}
	return func() { flockUnlock(fd) }, nil
}

// Default permission modes.
const (
	DefaultFileMode = 0644
	DefaultDirMode  = 0755
)

// Source loads and saves raw document data from/to a file.
type Source struct {
	path      string
	mediaType string
	fileMode  os.FileMode
	dirMode   os.FileMode
}

// Ensure Source implements the source.WatchableSource interface.
var _ source.WatchableSource = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithFileMode sets the file permission mode used when saving.
// Default is 0644.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Source) {
		s.fileMode = mode
	}
}

// WithDirMode sets the directory permission mode used when creating parent directories.
// Default is 0755.
func WithDirMode(mode os.FileMode) Option {
	return func(s *Source) {
		s.dirMode = mode
	}
}

// WithMediaType declares the media type of the file, overriding
// extension-based classification on import.
func WithMediaType(mediaType string) Option {
	return func(s *Source) {
		s.mediaType = mediaType
	}
}

// New creates a source that reads from and writes to a file.
// The path can be absolute or relative. Tilde (~) expansion is supported.
//
// Example:
//
//	src := fs.New("~/shadows/umbra.json")
//	src := fs.New("guybrush.yaml", fs.WithFileMode(0600))
func New(path string, opts ...Option) *Source {
	s := &Source{
		path:     path,
		fileMode: DefaultFileMode,
		dirMode:  DefaultDirMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the path as given to New.
func (s *Source) Path() string {
	return s.path
}

// Type returns the source type identifier.
func (s *Source) Type() source.SourceType {
	return source.TypeFS
}

// FillDetails implements types.DetailsFiller.
func (s *Source) FillDetails(d *types.Details) {
	d.Path = s.path
	d.Name = filepath.Base(s.path)
	d.MediaType = s.mediaType
	d.Watcher = watcher.TypeSubscription
}

// Load implements the source.Source interface.
// A missing file is reported as a *source.NotExistError.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolvePath()
	if err != nil {
		return nil, err
	}

	data, err := osReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, source.NewNotExistError(s.path, err)
		}
		return nil, fmt.Errorf("failed to read file %q: %w", s.path, err)
	}
	return data, nil
}

// Save implements the source.Source interface with file locking.
// The updateFunc receives current file contents (nil for a new file) and
// returns the new contents to write.
//
// The write is performed atomically by writing to a temporary file first,
// then renaming it to the target path. Parent directories are created if
// they do not exist.
func (s *Source) Save(ctx context.Context, updateFunc source.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	targetPath, err := s.resolvePath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(targetPath)
	if err := osMkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	lf, err := openFile(targetPath, os.O_RDWR|os.O_CREATE, s.fileMode)
	if err != nil {
		return fmt.Errorf("failed to open file %q for locking: %w", targetPath, err)
	}
	defer lf.Close()

	unlock, err := fileLockFunc(int(lf.Fd()))
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %q: %w", targetPath, err)
	}
	defer unlock()

	// Read current contents through the locked handle
	var current []byte
	stat, err := lf.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file %q: %w", targetPath, err)
	}
	if stat.Size() > 0 {
		current = make([]byte, stat.Size())
		if _, err := lf.ReadAt(current, 0); err != nil {
			return fmt.Errorf("failed to read current file %q: %w", targetPath, err)
		}
	}

	newData, err := updateFunc(current)
	if err != nil {
		return err
	}

	tmp, err := createTemp(dir, ".umbra-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			osRemove(tmpPath)
		}
	}()

	if _, err := tmp.Write(newData); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := osChmod(tmpPath, s.fileMode); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	// Lock is still held, ensuring exclusive access
	if err := osRename(tmpPath, targetPath); err != nil {
		return fmt.Errorf("failed to rename temporary file to %q: %w", targetPath, err)
	}

	success = true
	return nil
}

// CanSave returns true because file system sources support saving.
func (s *Source) CanSave() bool {
	return true
}

func (s *Source) resolvePath() (string, error) {
	expanded, err := expandTilde(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path %q: %w", s.path, err)
	}
	return expanded, nil
}

// expandTilde expands "~" and "~/path". Other forms are returned as-is.
func expandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand home directory: %w", err)
	}

	if len(path) == 1 {
		return homeDir, nil
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}

// Subscribe implements the watcher.SubscriptionHandler interface.
// It watches the directory containing the file so that atomic replacements
// (temp file + rename) are observed, and notifies with (nil, nil) on every
// write, create or rename of the file.
func (s *Source) Subscribe(ctx context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
	path, err := s.resolvePath()
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}

	filename := filepath.Base(path)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					notify(nil, nil)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				notify(nil, err)
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func(ctx context.Context) error {
		err := w.Close()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		return err
	}
	return stop, nil
}

// Watch implements the source.WatchableSource interface.
// The returned watcher re-reads the file after every change event.
func (s *Source) Watch() (watcher.Watcher, error) {
	return watcher.NewSubscription(watcher.SubscriptionHandlerFunc(s.Subscribe), s.Load), nil
}
