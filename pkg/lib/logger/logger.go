package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"

	constants "locamat/pkg/config"
	"locamat/pkg/lib/logger/handler/slogpretty"
)

const serviceName = "locamat"

func SetupLogger(env string) (*slog.Logger, error) {
	return SetupLoggerTo(env, os.Stdout)
}

// SetupLoggerTo picks the handler for env and writes to out.
func SetupLoggerTo(env string, out io.Writer) (*slog.Logger, error) {
	var log *slog.Logger

	switch env {
	case constants.EnvLocal:
		log = setupPrettySlog(out)
	case constants.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case constants.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		return nil, errors.New("failed to init logger: wrong env variable")
	}

	return log.With("service", serviceName, "env", env), nil
}

func setupPrettySlog(out io.Writer) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(out)

	return slog.New(handler)
}
