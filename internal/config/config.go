package config

import "fmt"

// Video settings
const (
	Width  = 1920
	Height = 1080
	FPS    = 60
)

// Scope settings
const (
	// WindowLen is the number of samples shown per trace per frame.
	WindowLen = 2048

	// AnalysisMargin is the extra lookahead/lookbehind read around the
	// display window so the trigger search never runs off the edge.
	AnalysisMargin = WindowLen / 2

	// Thickness is the default stroke width of the trace in pixels.
	Thickness = 4.0
)

// Trigger defaults
const (
	// SearchWidth bounds the trigger search region around the previous
	// offset, in samples.
	SearchWidth = 512

	// MinPitchHz and MaxPitchHz bound the fundamental-period search.
	MinPitchHz = 40.0
	MaxPitchHz = 2000.0

	// CorrelationThreshold is the minimum normalized correlation peak
	// accepted before the crosscorrelation mode falls back to holding
	// the previous offset.
	CorrelationThreshold = 0.35

	// TriggerLevel, TriggerHysteresis and TriggerDeadTime are the
	// external-trigger defaults.
	TriggerLevel      = 0.0
	TriggerHysteresis = 0.05
	TriggerDeadTime   = 64 // samples
)

// Config holds the runtime settings assembled from CLI flags.
type Config struct {
	Width     int
	Height    int
	FPS       int
	WindowLen int
	Thickness float64

	Mode           string
	TriggerChannel int
	TriggerLevel   float64
	TriggerSlope   string

	Channels int  // number of traces; 0 means one per source channel
	Software bool // force the CPU rasterizer

	Title    string
	FontPath string
}

// Default returns a Config populated with the package defaults.
func Default() Config {
	return Config{
		Width:          Width,
		Height:         Height,
		FPS:            FPS,
		WindowLen:      WindowLen,
		Thickness:      Thickness,
		Mode:           "peakspeed",
		TriggerChannel: -1,
		TriggerLevel:   TriggerLevel,
		TriggerSlope:   "rising",
		Channels:       1,
	}
}

// Validate checks the invariants the rest of the pipeline relies on.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %d", c.FPS)
	}
	if c.WindowLen < 2 {
		return fmt.Errorf("window length must be at least 2, got %d", c.WindowLen)
	}
	if c.Thickness <= 0 {
		return fmt.Errorf("thickness must be positive, got %g", c.Thickness)
	}
	if c.Channels < 0 {
		return fmt.Errorf("trace count cannot be negative, got %d", c.Channels)
	}
	if c.TriggerSlope != "rising" && c.TriggerSlope != "falling" {
		return fmt.Errorf("trigger slope must be rising or falling, got %q", c.TriggerSlope)
	}
	return nil
}
