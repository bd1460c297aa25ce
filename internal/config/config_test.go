package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"HEADLESS", "CAPTURE_INTERVAL_MS", "CAPTURE_REGION", "TARGET_URL",
		"OCR_WORKERS", "COLOR_OCR", "REDIS_URL", "FEED_ADDR",
		"AUTO_ENABLE_INDICATOR", "INDICATOR_RETRY_CYCLES",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if !cfg.Headless {
		t.Errorf("Headless = false, want true")
	}
	if cfg.CaptureInterval != time.Second {
		t.Errorf("CaptureInterval = %v, want 1s", cfg.CaptureInterval)
	}
	if want := (Region{X: 15, Y: 260, Width: 400, Height: 50}); cfg.CaptureRegion != want {
		t.Errorf("CaptureRegion = %+v, want %+v", cfg.CaptureRegion, want)
	}
	if !cfg.ColorOCR {
		t.Errorf("ColorOCR = false, want true")
	}
	if cfg.OCRWorkers != 3 {
		t.Errorf("OCRWorkers = %d, want 3", cfg.OCRWorkers)
	}
	if cfg.RedisURL != "" || cfg.FeedAddr != "" {
		t.Errorf("optional outputs should be disabled by default")
	}
	if !cfg.AutoEnableIndicator || cfg.IndicatorRetryCycles != 5 {
		t.Errorf("indicator = %v/%d, want true/5", cfg.AutoEnableIndicator, cfg.IndicatorRetryCycles)
	}
}

func TestBoolFlagsOnlyDisabledByExactFalse(t *testing.T) {
	testCases := []struct {
		value string
		want  bool
	}{
		{value: "", want: true},
		{value: "false", want: false},
		{value: "true", want: true},
		{value: "0", want: true},
		{value: "f", want: true},
		{value: "FALSE", want: true},
		{value: "no", want: true},
	}

	for _, tc := range testCases {
		t.Run("HEADLESS="+tc.value, func(t *testing.T) {
			t.Setenv("HEADLESS", tc.value)
			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if cfg.Headless != tc.want {
				t.Errorf("Headless = %v, want %v", cfg.Headless, tc.want)
			}
		})
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HEADLESS", "false")
	t.Setenv("CAPTURE_INTERVAL_MS", "2500")
	t.Setenv("CAPTURE_REGION", "1, 2, 30, 40")
	t.Setenv("COLOR_OCR", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Headless {
		t.Errorf("Headless = true, want false")
	}
	if cfg.CaptureInterval != 2500*time.Millisecond {
		t.Errorf("CaptureInterval = %v, want 2.5s", cfg.CaptureInterval)
	}
	if want := (Region{X: 1, Y: 2, Width: 30, Height: 40}); cfg.CaptureRegion != want {
		t.Errorf("CaptureRegion = %+v, want %+v", cfg.CaptureRegion, want)
	}
	if cfg.ColorOCR {
		t.Errorf("ColorOCR = true, want false")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{name: "malformed region", key: "CAPTURE_REGION", value: "1,2,3", want: "CAPTURE_REGION"},
		{name: "empty region", key: "CAPTURE_REGION", value: "0,0,0,10", want: "positive size"},
		{name: "too many workers", key: "OCR_WORKERS", value: "64", want: "OCR_WORKERS"},
		{name: "negative interval", key: "CAPTURE_INTERVAL_MS", value: "-5", want: "CAPTURE_INTERVAL_MS"},
		{name: "negative indicator retry", key: "INDICATOR_RETRY_CYCLES", value: "-1", want: "INDICATOR_RETRY_CYCLES"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := LoadConfig()
			if err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion("15,260,400,50")
	if err != nil {
		t.Fatalf("ParseRegion: %v", err)
	}
	if r.String() != "15,260,400,50" {
		t.Errorf("round trip = %q", r.String())
	}

	if _, err := ParseRegion("a,b,c,d"); err == nil {
		t.Error("expected error for non-numeric region")
	}
}
