package lower

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	nopLogger = zap.NewNop()
	logger    atomic.Pointer[zap.Logger]
)

// Logger returns the lowering pipeline's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nopLogger
}

// SetLogger configures the pipeline's logger. A nil logger restores the
// no-op default. It is safe to call while methods are being lowered.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
