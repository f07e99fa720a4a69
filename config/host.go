package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/comalice/fsmx/internal/logging"
	"github.com/comalice/fsmx/realtime"
)

// Host holds the settings of a process hosting fsmx machines.
//
//	FSMX_FRAME_RATE=60 FSMX_FIXED_STEP=20ms FSMX_LOG_LEVEL=debug ./demo
type Host struct {
	FrameRate     int           `env:"FSMX_FRAME_RATE" envDefault:"60"`
	FixedStep     time.Duration `env:"FSMX_FIXED_STEP" envDefault:"20ms"`
	MaxFixedSteps int           `env:"FSMX_MAX_FIXED_STEPS" envDefault:"5"`
	MaxRequests   int           `env:"FSMX_MAX_REQUESTS" envDefault:"1000"`
	LogLevel      string        `env:"FSMX_LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"FSMX_LOG_FORMAT" envDefault:"text"`
	MachineFile   string        `env:"FSMX_MACHINE_FILE"`
}

// LoadHost reads Host from the environment. Variables from the given .env
// files are loaded first without overriding variables already set; with no
// files the default .env is tried and may be missing.
func LoadHost(files ...string) (Host, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Host{}, errors.Join(ErrParsingConfig, err)
		}
	} else {
		_ = godotenv.Load()
	}

	var h Host
	if err := env.Parse(&h); err != nil {
		return Host{}, errors.Join(ErrParsingConfig, err)
	}
	if err := h.Validate(); err != nil {
		return Host{}, err
	}
	return h, nil
}

// Validate checks the numeric limits and the logging settings.
func (h Host) Validate() error {
	switch {
	case h.FrameRate <= 0:
		return fmt.Errorf("%w: frame rate must be positive, got %d", ErrInvalidConfig, h.FrameRate)
	case h.FixedStep <= 0:
		return fmt.Errorf("%w: fixed step must be positive, got %v", ErrInvalidConfig, h.FixedStep)
	case h.MaxFixedSteps <= 0:
		return fmt.Errorf("%w: max fixed steps must be positive, got %d", ErrInvalidConfig, h.MaxFixedSteps)
	case h.MaxRequests <= 0:
		return fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidConfig, h.MaxRequests)
	}
	if _, err := logging.ParseLevel(h.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseFormat(h.LogFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// TickRate is the frame period for FrameRate.
func (h Host) TickRate() time.Duration {
	return time.Second / time.Duration(h.FrameRate)
}

// Realtime returns the loop configuration.
func (h Host) Realtime() realtime.Config {
	return realtime.Config{
		TickRate:      h.TickRate(),
		FixedStep:     h.FixedStep,
		MaxFixedSteps: h.MaxFixedSteps,
		MaxRequests:   h.MaxRequests,
	}
}

// Logger builds a logger writing to out with the configured level and
// format.
func (h Host) Logger(out io.Writer, attrs ...slog.Attr) (*slog.Logger, error) {
	level, err := logging.ParseLevel(h.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	format, err := logging.ParseFormat(h.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return logging.New(
		logging.WithLevel(level),
		logging.WithFormat(format),
		logging.WithOutput(out),
		logging.WithAttr(attrs...),
	), nil
}
