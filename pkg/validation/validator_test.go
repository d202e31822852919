package validation

import (
	"errors"
	"strings"
	"testing"
)

type presetFixture struct {
	Label string `validate:"required,max=40"`
	Value string `validate:"required,max=32"`
	Color string `validate:"omitempty,hexcolor"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name        string
		input       presetFixture
		expectError bool
		errorField  string
	}{
		{"valid", presetFixture{Label: "Part of", Value: "part", Color: "#44aa99"}, false, ""},
		{"missing label", presetFixture{Value: "part"}, true, "Label"},
		{"missing value", presetFixture{Label: "Part of"}, true, "Value"},
		{"bad color", presetFixture{Label: "Part of", Value: "part", Color: "teal"}, true, "Color"},
		{"value too long", presetFixture{Label: "x", Value: strings.Repeat("v", 33)}, true, "Value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorField) {
					t.Errorf("error %q should mention %s", err, tt.errorField)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	if err := Struct(nil); err == nil {
		t.Error("Struct(nil) should fail")
	}
}

func TestPresetValues(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   error
	}{
		{"empty table", nil, nil},
		{"unique", []string{"rel", "part", "ex"}, nil},
		{"blank value", []string{"rel", "  "}, ErrEmptyPresetValue},
		{"duplicate", []string{"rel", "part", "rel"}, ErrDuplicatePresetValue},
		{"too many", make21(), ErrTooManyPresets},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PresetValues(tt.values)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("PresetValues() = %v, want %v", err, tt.want)
			}
		})
	}
}

func make21() []string {
	out := make([]string, 21)
	for i := range out {
		out[i] = strings.Repeat("v", i+1)
	}
	return out
}

func TestViewLayers(t *testing.T) {
	for n := MinViewLayers; n <= MaxViewLayers; n++ {
		if err := ViewLayers(n); err != nil {
			t.Errorf("ViewLayers(%d) = %v", n, err)
		}
	}
	for _, n := range []int{0, -1, 8} {
		if err := ViewLayers(n); !errors.Is(err, ErrViewLayersOutOfRange) {
			t.Errorf("ViewLayers(%d) = %v, want ErrViewLayersOutOfRange", n, err)
		}
	}
}
