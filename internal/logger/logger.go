package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// New builds the application logger. Output goes to path when it is set so the
// terminal UI is not disturbed; an empty path keeps zap's default stderr sink.
func New(production bool, path string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if production {
		cfg = zap.NewProductionConfig()
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}
	return cfg.Build()
}
