package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFile is the main configuration file name
	ConfigFile = "sceneflow.yaml"
	// DefaultRecord is the record name used when Config.Record is empty
	DefaultRecord = "SceneLoaderData"
)

// GameConfig holds all loaded configurations
type GameConfig struct {
	Config *Config
	Record *Record
}

// Loader loads configuration from YAML files using fs.FS interface
type Loader struct {
	fsys     fs.FS
	basePath string
}

// NewLoader creates a new config loader from filesystem path
func NewLoader(basePath string) *Loader {
	return &Loader{
		fsys:     os.DirFS(basePath),
		basePath: basePath,
	}
}

// NewFSLoader creates a new config loader from fs.FS
func NewFSLoader(fsys fs.FS, basePath string) *Loader {
	return &Loader{
		fsys:     fsys,
		basePath: basePath,
	}
}

// BasePath returns the directory the loader reads from
func (l *Loader) BasePath() string {
	return l.basePath
}

// LoadConfig loads sceneflow.yaml
func (l *Loader) LoadConfig() (*Config, error) {
	var cfg Config
	if err := l.decode(ConfigFile, &cfg); err != nil {
		return nil, err
	}
	if cfg.Record == "" {
		cfg.Record = DefaultRecord
	}
	return &cfg, nil
}

// LoadRecord loads the named record. A missing record yields an empty one.
func (l *Loader) LoadRecord(name string) (*Record, error) {
	var rec Record
	err := l.decode(name+".yaml", &rec)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return &rec, nil
}

// LoadAll loads the main config and the record it names
func (l *Loader) LoadAll() (*GameConfig, error) {
	cfg, err := l.LoadConfig()
	if err != nil {
		return nil, err
	}

	rec, err := l.LoadRecord(cfg.Record)
	if err != nil {
		return nil, err
	}

	return &GameConfig{
		Config: cfg,
		Record: rec,
	}, nil
}

func (l *Loader) decode(name string, v any) error {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// WriteRecord stores rec as <dir>/<name>.yaml
func WriteRecord(dir, name string, rec *Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", name, err)
	}
	path := filepath.Join(dir, name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record %s: %w", name, err)
	}
	return nil
}
