package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration. Values come from defaults, then an
// optional .env file and DOTMATRIX_* environment variables, then CLI flags.
type Config struct {
	// UI
	FPS        int
	LogFile    string
	DumpFile   string
	StartDir   string
	ToastAfter time.Duration

	// Audio
	SampleRate int
	FFTSize    int
	Volume     float64
	SkipStep   time.Duration

	// Capture
	CaptureDevice string
	CaptureFrames int

	// MIDI remote, empty disables
	MidiPort string

	// Terminal cell size in logical pixels; each cell carries 2x4 braille dots.
	CellWidth  float64
	CellHeight float64
}

// Default returns the built-in configuration.
func Default() Config {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return Config{
		FPS:           30,
		StartDir:      dir,
		ToastAfter:    3 * time.Second,
		SampleRate:    44100,
		FFTSize:       256,
		Volume:        0.75,
		SkipStep:      10 * time.Second,
		CaptureFrames: 512,
		CellWidth:     8,
		CellHeight:    16,
	}
}

// Load reads an optional .env file (path may be empty for ./.env) and applies
// environment overrides on top of Default.
func Load(envFile string) (Config, error) {
	cfg := Default()
	var err error
	if envFile != "" {
		err = godotenv.Load(envFile)
	} else {
		err = godotenv.Load()
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("loading env file: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from DOTMATRIX_* variables.
func (c *Config) ApplyEnv() {
	c.FPS = envInt("DOTMATRIX_FPS", c.FPS)
	c.LogFile = envStr("DOTMATRIX_LOG", c.LogFile)
	c.DumpFile = envStr("DOTMATRIX_DUMP", c.DumpFile)
	c.StartDir = envStr("DOTMATRIX_DIR", c.StartDir)
	c.SampleRate = envInt("DOTMATRIX_SAMPLE_RATE", c.SampleRate)
	c.FFTSize = envInt("DOTMATRIX_FFT_SIZE", c.FFTSize)
	c.Volume = envFloat("DOTMATRIX_VOLUME", c.Volume)
	c.SkipStep = time.Duration(envInt("DOTMATRIX_SKIP_SECONDS", int(c.SkipStep/time.Second))) * time.Second
	c.CaptureDevice = envStr("DOTMATRIX_CAPTURE_DEVICE", c.CaptureDevice)
	c.MidiPort = envStr("DOTMATRIX_MIDI", c.MidiPort)
}

// Validate rejects settings the audio pipeline cannot run with.
func (c Config) Validate() error {
	if c.FPS <= 0 || c.FPS > 120 {
		return fmt.Errorf("fps must be in (0,120], got %d", c.FPS)
	}
	if c.FFTSize < 32 || c.FFTSize > 32768 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft size must be a power of two in [32,32768], got %d", c.FFTSize)
	}
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume must be in [0,1], got %.2f", c.Volume)
	}
	if c.SkipStep <= 0 {
		return fmt.Errorf("skip step must be positive")
	}
	if c.CellWidth <= 0 || c.CellHeight != 2*c.CellWidth {
		return fmt.Errorf("cell must be positive and twice as tall as wide, got %.0fx%.0f", c.CellWidth, c.CellHeight)
	}
	return nil
}

// PixelRatio is the number of braille dots per logical pixel.
func (c Config) PixelRatio() float64 {
	return 2 / c.CellWidth
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
