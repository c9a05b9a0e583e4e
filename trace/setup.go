package trace

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultLoggerLock sync.RWMutex
	defaultLogger     = zap.NewNop()
)

type setupConfig struct {
	level   zapcore.Level
	logFile string
}

// SetupOption configures Setup.
type SetupOption func(*setupConfig)

// WithLevel sets the minimum level that is logged. The default is Debug.
func WithLevel(level zapcore.Level) SetupOption {
	return func(c *setupConfig) {
		c.level = level
	}
}

// WithLogFile additionally writes the trace log to the given file. The
// console output is kept.
func WithLogFile(path string) SetupOption {
	return func(c *setupConfig) {
		c.logFile = path
	}
}

// Setup enables tracing and builds the default trace logger. The logger
// always writes to the console; WithLogFile adds a file output.
func Setup(opts ...SetupOption) (*zap.Logger, error) {
	cfg := setupConfig{level: zapcore.DebugLevel}
	for _, opt := range opts {
		opt(&cfg)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stderr),
			cfg.level,
		),
	}

	if cfg.logFile != "" {
		f, err := os.OpenFile(
			cfg.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.Lock(f),
			cfg.level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...)).Named(RootDomainName)

	defaultLoggerLock.Lock()
	defaultLogger = logger
	defaultLoggerLock.Unlock()

	Enable()

	return logger, nil
}

// Logger returns the default trace logger. Before Setup is called, it
// returns a no-op logger.
func Logger() *zap.Logger {
	defaultLoggerLock.RLock()
	defer defaultLoggerLock.RUnlock()

	return defaultLogger
}

// NamedLogger returns a child of the default trace logger named
// `tracekit.<suffix>`.
func NamedLogger(suffix string) *zap.Logger {
	return Logger().Named(suffix)
}

// Msg logs a message through the default trace logger. Messages are dropped
// while tracing is disabled. Levels above Info carry a stack trace.
func Msg(level zapcore.Level, msg string, fields ...zap.Field) {
	if !IsEnabled() {
		return
	}

	logger := Logger()
	if level > zapcore.InfoLevel {
		logger = logger.WithOptions(zap.AddStacktrace(level))
	}

	if ce := logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}
