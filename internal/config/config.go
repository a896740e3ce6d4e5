// SPDX-License-Identifier: EPL-2.0

// Package config loads runtime settings from DMUFFLER_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ik5/dmuffler/internal/output"
	"github.com/ik5/dmuffler/internal/rpm"
)

// Config holds all runtime configuration.
type Config struct {
	// CAN bus
	CANInterface  string
	CANID         uint32
	ByteOffset    int
	ByteWidth     int
	ByteOrder     string // little or big
	Scale         float64
	ValueOffset   float64
	Bitrate       int
	SetupLink     bool // run ip link before opening the bus
	ReceiveWindow time.Duration

	// RPM handling
	MinRPM       float64
	MaxRPM       float64
	SilenceFloor float64
	PollInterval time.Duration
	Staleness    time.Duration
	Deadband     float64
	PitchMin     float64
	PitchMax     float64

	// Simulation
	TestMode  bool
	Seed      uint64
	Keyboard  bool
	PedalRise float64 // rpm per second
	PedalFall float64

	// Audio
	Sink         string // oto, pump or none
	Card         string // ALSA card index or name, empty to auto-detect
	SampleRate   int
	Channels     int
	BufferFrames int
	Loop         bool
	Declick      time.Duration
	NormalizeRMS float64

	// Catalog
	AudioDir        string
	CatalogManifest string
	CatalogDB       string

	// Runtime
	MeterInterval   time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
	LogDevelopment  bool
}

// Load reads configuration from environment variables with defaults.
// Malformed values fall back to the default.
func Load() Config {
	return Config{
		CANInterface:  envStr("DMUFFLER_CAN_INTERFACE", "can0"),
		CANID:         envHex("DMUFFLER_CAN_ID", 0x123),
		ByteOffset:    envInt("DMUFFLER_RPM_BYTE_OFFSET", 0),
		ByteWidth:     envInt("DMUFFLER_RPM_BYTE_WIDTH", 2),
		ByteOrder:     envStr("DMUFFLER_RPM_BYTE_ORDER", "little"),
		Scale:         envFloat("DMUFFLER_RPM_SCALE", 1.0),
		ValueOffset:   envFloat("DMUFFLER_RPM_OFFSET", 0),
		Bitrate:       envInt("DMUFFLER_CAN_BITRATE", 500000),
		SetupLink:     envBool("DMUFFLER_CAN_SETUP", false),
		ReceiveWindow: envDuration("DMUFFLER_CAN_WINDOW", rpm.DefaultWindow),

		MinRPM:       envFloat("DMUFFLER_MIN_RPM", 1000),
		MaxRPM:       envFloat("DMUFFLER_MAX_RPM", 8000),
		SilenceFloor: envFloat("DMUFFLER_SILENCE_FLOOR", 0),
		PollInterval: envDuration("DMUFFLER_POLL_INTERVAL", 20*time.Millisecond),
		Staleness:    envDuration("DMUFFLER_STALENESS", 500*time.Millisecond),
		Deadband:     envFloat("DMUFFLER_DEADBAND", 0),
		PitchMin:     envFloat("DMUFFLER_PITCH_MIN", 0.98),
		PitchMax:     envFloat("DMUFFLER_PITCH_MAX", 1.05),

		TestMode:  envBool("DMUFFLER_TEST_MODE", false),
		Seed:      uint64(envInt("DMUFFLER_SEED", int(time.Now().UnixNano()&0x7FFFFFFF))),
		Keyboard:  envBool("DMUFFLER_KEYBOARD", false),
		PedalRise: envFloat("DMUFFLER_PEDAL_RISE", 4000),
		PedalFall: envFloat("DMUFFLER_PEDAL_FALL", 2500),

		Sink:         envStr("DMUFFLER_AUDIO_SINK", "oto"),
		Card:         envStr("DMUFFLER_AUDIO_DEVICE", ""),
		SampleRate:   envInt("DMUFFLER_SAMPLE_RATE", 44100),
		Channels:     envInt("DMUFFLER_CHANNELS", 2),
		BufferFrames: envInt("DMUFFLER_BUFFER_FRAMES", 1024),
		Loop:         envBool("DMUFFLER_LOOP", true),
		Declick:      envDuration("DMUFFLER_DECLICK", 10*time.Millisecond),
		NormalizeRMS: envFloat("DMUFFLER_NORMALIZE_RMS", 0),

		AudioDir:        envStr("DMUFFLER_AUDIO_DIR", "audio/"),
		CatalogManifest: envStr("DMUFFLER_CATALOG_MANIFEST", ""),
		CatalogDB:       envStr("DMUFFLER_CATALOG_DB", ""),

		MeterInterval:   envDuration("DMUFFLER_METER_INTERVAL", 10*time.Second),
		ShutdownTimeout: envDuration("DMUFFLER_SHUTDOWN_TIMEOUT", time.Second),
		LogLevel:        envStr("DMUFFLER_LOG_LEVEL", "info"),
		LogDevelopment:  envBool("DMUFFLER_LOG_DEVELOPMENT", false),
	}
}

var ErrInvalid = errors.New("invalid configuration")

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.ByteWidth >= 1 && c.ByteWidth <= 8, "rpm byte width %d not in 1..8", c.ByteWidth)
	check(c.ByteOffset >= 0, "rpm byte offset %d is negative", c.ByteOffset)
	check(c.Scale != 0, "rpm scale is zero")
	check(c.CANID <= 0x1FFFFFFF, "can id 0x%X exceeds 29 bits", c.CANID)
	check(c.Bitrate > 0, "can bitrate %d", c.Bitrate)
	check(c.MinRPM >= 0 && c.MinRPM < c.MaxRPM, "rpm range [%v, %v]", c.MinRPM, c.MaxRPM)
	check(c.PollInterval > 0, "poll interval %v", c.PollInterval)
	check(c.PitchMin >= 0.5 && c.PitchMin <= c.PitchMax && c.PitchMax <= 2, "pitch range [%v, %v]", c.PitchMin, c.PitchMax)
	check(c.SampleRate > 0, "sample rate %d", c.SampleRate)
	check(c.Channels == 1 || c.Channels == 2, "channels %d not 1 or 2", c.Channels)
	check(c.BufferFrames > 0, "buffer frames %d", c.BufferFrames)
	check(c.ShutdownTimeout > 0, "shutdown timeout %v", c.ShutdownTimeout)
	check(c.AudioDir != "" || c.CatalogManifest != "" || c.CatalogDB != "", "no sound catalog configured")

	if _, err := rpm.ParseByteOrder(c.ByteOrder); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if _, err := output.ParseSink(c.Sink); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}

	return errors.Join(errs...)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envHex accepts 0x-prefixed hex as well as decimal.
func envHex(key string, fallback uint32) uint32 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(strings.TrimSpace(v), 0, 32); err == nil {
			return uint32(n)
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("50ms") or plain seconds ("0.05").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	return fallback
}
