package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// OpenLogFile opens logFile for appending, creating parent directories.
// An empty path disables file logging and returns a nil file.
func OpenLogFile(logFile string) (*os.File, error) {
	if logFile == "" {
		return nil, nil
	}

	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

func fileLevel(debug bool) zapcore.Level {
	if debug {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

func fileCore(w io.Writer, debug bool) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), fileLevel(debug))
}

// AttachFileLogger tees base into a JSON core writing to w. Every entry
// written by the returned logger carries the session id, so lines from
// concurrent CLI runs sharing one file can be told apart.
func AttachFileLogger(base *zap.Logger, w io.Writer, debug bool, sessionID string) *zap.Logger {
	if w == nil {
		return base
	}

	core := fileCore(w, debug)
	logger := base.WithOptions(zap.WrapCore(func(existing zapcore.Core) zapcore.Core {
		return zapcore.NewTee(existing, core)
	}))
	if sessionID != "" {
		logger = logger.With(zap.String("session", sessionID))
	}
	return logger
}
