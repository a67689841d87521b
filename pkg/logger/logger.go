package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"komonitor/config"

	"github.com/rs/zerolog"
)

const prodStr string = "production"

func Init(cfg *config.Config) *zerolog.Logger {

	// Set global level based on environment
	switch cfg.Env {
	case prodStr:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var out io.Writer = os.Stdout
	if cfg.Env != prodStr {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			NoColor:    false,
			PartsOrder: []string{
				"time", "level", "caller", "service", "env", "message", "err",
			},
			FormatLevel: func(i any) string {
				return strings.ToUpper(fmt.Sprintf("[%s]", i))
			},
			FormatCaller: func(caller any) string {
				return fmt.Sprintf("(%s)", caller)
			},
		}
	}

	baseLogger := New(out, cfg.ServiceName, cfg.Env)

	// Add caller info for dev
	if cfg.Env != prodStr {
		baseLogger = baseLogger.With().Caller().Logger()
	}

	log.SetFlags(0)
	log.SetOutput(baseLogger)

	return &baseLogger
}

// New builds a logger carrying the service and env fields on every event.
func New(out io.Writer, service, env string) zerolog.Logger {
	return zerolog.New(out).With().
		Timestamp().
		Str("service", service).
		Str("env", env).
		Logger()
}

// Nop is used by tests and by components built without a logger.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
