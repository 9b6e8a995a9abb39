package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// DeploymentConfigFile is the per-deployment config file, looked up
	// in the working directory and its ancestors.
	DeploymentConfigFile = "semreg.yaml"

	operatorConfigDir  = ".config/semreg"
	operatorConfigFile = "config.yaml"
)

// Loader resolves the registry configuration from layered sources.
// Later layers override earlier ones field by field:
//
//	built-in defaults
//	operator file    ~/.config/semreg/config.yaml
//	deployment file  semreg.yaml in the working directory or an ancestor
type Loader struct {
	logger *slog.Logger

	// Injectable for tests.
	homeDir func() (string, error)
	workDir func() (string, error)
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, homeDir: os.UserHomeDir, workDir: os.Getwd}
}

// layer is one optional config source.
type layer struct {
	name string
	path string
}

// layers returns the file layers in merge order, lowest precedence
// first.
func (l *Loader) layers() []layer {
	var out []layer
	if home, err := l.homeDir(); err == nil {
		out = append(out, layer{name: "operator", path: filepath.Join(home, operatorConfigDir, operatorConfigFile)})
	}
	if path := l.findDeploymentConfig(); path != "" {
		out = append(out, layer{name: "deployment", path: path})
	}
	return out
}

// Load merges every present layer over the defaults and validates the
// result. A missing layer file is skipped silently; an unreadable or
// malformed one is skipped with a warning.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, layer := range l.layers() {
		overlay, err := LoadFromFile(layer.path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				l.logger.Warn("Skipping unreadable config layer",
					slog.String("layer", layer.name),
					slog.String("path", layer.path),
					slog.String("error", err.Error()))
			}
			continue
		}
		l.logger.Debug("Applied config layer",
			slog.String("layer", layer.name),
			slog.String("path", layer.path))
		cfg.Merge(overlay)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnsureOperatorConfig writes a defaults file at the operator layer's
// path when none exists, so operators have a template to edit.
func (l *Loader) EnsureOperatorConfig() error {
	home, err := l.homeDir()
	if err != nil {
		return err
	}
	path := filepath.Join(home, operatorConfigDir, operatorConfigFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := DefaultConfig().SaveToFile(path); err != nil {
		return err
	}
	l.logger.Info("Created operator config", slog.String("path", path))
	return nil
}

// findDeploymentConfig walks from the working directory toward the
// filesystem root and returns the first semreg.yaml found.
func (l *Loader) findDeploymentConfig() string {
	dir, err := l.workDir()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, DeploymentConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
