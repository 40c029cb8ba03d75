package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestValidateAcceptsAutoChannels(t *testing.T) {
	// 0 means one trace per source channel; the count is resolved after
	// the source is decoded, so validation must let it through.
	cfg := Default()
	cfg.Channels = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("channels 0 should validate as auto, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative channels", func(c *Config) { c.Channels = -1 }},
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"window too short", func(c *Config) { c.WindowLen = 1 }},
		{"zero thickness", func(c *Config) { c.Thickness = 0 }},
		{"bad slope", func(c *Config) { c.TriggerSlope = "sideways" }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
