package validation

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidator_Chaining(t *testing.T) {
	err := NewConfigValidator("layout").
		Required("snapshot", "graph.json").
		RangeInt("view_layers", 3, 1, 7).
		RangeFloat("link_strength", 0.1, 0, 1).
		PositiveFloat("link_distance", 90).
		Positive("active_depth", 7).
		MinDuration("autosave_delay", time.Second, 100*time.Millisecond).
		OneOf("format", "json", []string{"json", "yaml"}).
		Validate()
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestConfigValidator_CollectsAll(t *testing.T) {
	cv := NewConfigValidator("view").
		Required("snapshot", "").
		RangeInt("layers", 9, 1, 7).
		RangeFloat("fade_rate", -1, 0, 100).
		PositiveFloat("frame_rate", 0).
		Positive("depth", 0).
		MinDuration("delay", time.Millisecond, time.Second).
		OneOf("level", "loud", []string{"debug", "info"})

	if !cv.HasErrors() {
		t.Fatal("expected errors")
	}
	if got := len(cv.Errors()); got != 7 {
		t.Errorf("expected 7 errors, got %d", got)
	}
	if err := cv.Validate(); err == nil {
		t.Error("Validate() should fail")
	}
}

func TestConfigValidator_CustomAndWhen(t *testing.T) {
	sentinel := errors.New("bad bucket")

	err := NewConfigValidator("s3").
		When(true, func(cv *ConfigValidator) {
			cv.Custom("bucket", func() error { return sentinel })
		}).
		When(false, func(cv *ConfigValidator) {
			cv.Required("key", "")
		}).
		Validate()

	if !errors.Is(err, sentinel) {
		t.Errorf("Validate() = %v, want wrapped sentinel", err)
	}
}

func TestDefaults(t *testing.T) {
	if got := DefaultOr("", "graph.json"); got != "graph.json" {
		t.Errorf("DefaultOr = %q", got)
	}
	if got := DefaultOr(2.5, 1.0); got != 2.5 {
		t.Errorf("DefaultOr = %v", got)
	}
	if got := DefaultOrDuration(0, time.Second); got != time.Second {
		t.Errorf("DefaultOrDuration = %v", got)
	}
	if got := ClampInt(12, 1, 7); got != 7 {
		t.Errorf("ClampInt = %d", got)
	}
	if got := ClampInt(-3, 1, 7); got != 1 {
		t.Errorf("ClampInt = %d", got)
	}
}
