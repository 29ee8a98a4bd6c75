// Package telemetry configures logging, metrics and tracing for the server.
package telemetry

import (
	"io"
	"strings"

	"github.com/effective-security/xlog"
	"github.com/pkg/errors"
)

// ParseLevel converts a configured level name to an xlog level.
func ParseLevel(level string) (xlog.LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "", "INFO":
		return xlog.INFO, nil
	case "DEBUG":
		return xlog.DEBUG, nil
	case "NOTICE":
		return xlog.NOTICE, nil
	case "WARN", "WARNING":
		return xlog.WARNING, nil
	case "ERROR":
		return xlog.ERROR, nil
	}
	return xlog.INFO, errors.Errorf("unsupported log level %q", level)
}

// SetupLogging sends all package loggers to w at the given level.
// w must not be stdout when serving over stdio.
func SetupLogging(level string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	xlog.SetFormatter(xlog.NewStringFormatter(w))
	xlog.SetGlobalLogLevel(lvl)
	return nil
}
