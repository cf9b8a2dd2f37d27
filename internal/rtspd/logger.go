package rtspd

import (
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// InitLogger installs a tint handler writing to w as the default slog logger
func InitLogger(config *Config, w io.Writer) {
	slog.SetDefault(slog.New(newLogHandler(config.GetSlogLevel(), w)))
}

func newLogHandler(level slog.Level, w io.Writer) slog.Handler {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := getProjectRoot(filename)

	// Source paths are printed relative to the module root
	replaceAttr := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key != slog.SourceKey {
			return a
		}
		source, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		if projectRoot != "" && strings.HasPrefix(source.File, projectRoot+"/") {
			source.File = source.File[len(projectRoot)+1:]
		}
		return slog.Any(a.Key, source)
	}

	return tint.NewHandler(w, &tint.Options{
		Level:       level,
		AddSource:   true,
		TimeFormat:  time.RFC3339,
		ReplaceAttr: replaceAttr,
	})
}

// getProjectRoot walks up from this file (internal/rtspd/logger.go) to the module root
func getProjectRoot(filename string) string {
	if filename == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Dir(filepath.Dir(filepath.Dir(filename))))
}
