package skiff

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerMu sync.RWMutex
	logger   = zerolog.Nop()
)

// SetLogger installs the logger used for library diagnostics.
// The default discards everything.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	logger = l.With().Str("component", "skiff").Logger()
	loggerMu.Unlock()
}

// Logger returns the logger installed with SetLogger.
func Logger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func logDebug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

func logWarn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}
