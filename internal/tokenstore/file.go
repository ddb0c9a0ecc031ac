package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const fileMode = 0o600

// Session entries kept in a YAML file readable only by the owner
type FileStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Default session file location: $XDG_CONFIG_HOME/sims/session.yaml or its OS equivalent
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("can't resolve config dir: %w", err)
	}
	return filepath.Join(dir, "sims", "session.yaml"), nil
}

func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Load(_ context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStorage) Put(_ context.Context, entries map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	if err != nil {
		return err
	}
	maps.Copy(current, entries)
	return f.write(current)
}

func (f *FileStorage) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	if err != nil {
		return err
	}

	for _, k := range keys {
		delete(current, k)
	}

	if len(current) == 0 {
		err := os.Remove(f.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("can't remove session file: %w", err)
		}
		return nil
	}
	return f.write(current)
}

func (f *FileStorage) read() (map[string]string, error) {
	entries := make(map[string]string)

	data, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return entries, nil
	case err != nil:
		return nil, fmt.Errorf("can't read session file: %w", err)
	}

	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("can't parse session file %s: %w", f.path, err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return entries, nil
}

// Write to a temp file in the same dir and rename, so readers never see half a file
func (f *FileStorage) write(entries map[string]string) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("can't encode session: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("can't create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("can't create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("can't chmod temp session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("can't write temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("can't close temp session file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("can't replace session file: %w", err)
	}
	return nil
}
