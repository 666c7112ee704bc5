// Package logging configures the process-wide slog logger for the CLI.
package logging

import (
	"cmp"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pingoo/pingoo-client/pkg/paths"
)

// DefaultLogFile is the debug log location under the data directory.
func DefaultLogFile() string {
	return filepath.Join(paths.GetDataDir(), "pingoo.debug.log")
}

// Setup installs the default slog logger. Without debug, logs are discarded.
// With debug, they go to a rotating file at path (or DefaultLogFile), which
// the caller must close.
func Setup(debug bool, path string) (io.Closer, error) {
	if !debug {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return nil, nil
	}

	file, err := NewRotatingFile(cmp.Or(strings.TrimSpace(path), DefaultLogFile()))
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return file, nil
}
