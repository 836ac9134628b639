package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JaimeStill/sightline/pkg/lifecycle"
)

// Local stores objects as files beneath a root directory.
// Keys are slash-separated paths relative to the root.
type Local struct {
	root   string
	extra  []string
	logger *slog.Logger
}

// NewLocal creates a filesystem store rooted at cfg.UploadDir. The detection
// output directory is created alongside it on Start.
func NewLocal(cfg *Config, logger *slog.Logger) *Local {
	return &Local{
		root:   cfg.UploadDir,
		extra:  []string{cfg.DetectionDir},
		logger: logger.With("system", "storage", "backend", "local"),
	}
}

// Root returns the directory objects are stored under.
func (l *Local) Root() string {
	return l.root
}

// Path returns the filesystem path of the object at key.
func (l *Local) Path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *Local) Start(lc *lifecycle.Coordinator) error {
	l.logger.Info("starting storage system", "root", l.root)

	for _, dir := range append([]string{l.root}, l.extra...) {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage directory %s: %w", dir, err)
		}
	}

	lc.OnStartup(func() error {
		info, err := os.Stat(l.root)
		if err != nil {
			return fmt.Errorf("stat storage root: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("storage root %s is not a directory", l.root)
		}
		l.logger.Info("storage directory ready", "root", l.root)
		return nil
	})

	return nil
}

// Upload writes the object to a temporary file and renames it into place,
// so readers never observe a partially written image.
func (l *Local) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	p, err := l.Path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", key, err)
	}

	l.logger.Debug("object stored", "key", key, "content_type", contentType)
	return nil
}

func (l *Local) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := l.Path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	p, err := l.Path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	p, err := l.Path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", key, err)
}
