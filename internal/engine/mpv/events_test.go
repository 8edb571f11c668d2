package mpv

import (
	"testing"

	"encore/internal/engine"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		fileError string
		want      engine.Category
	}{
		{"loading failed: connection reset by peer", engine.CategoryNetwork},
		{"stream timed out", engine.CategoryNetwork},
		{"name resolution failure", engine.CategoryNetwork},
		{"demuxer: failed to read packet", engine.CategoryFormat},
		{"invalid data found when processing input", engine.CategoryFormat},
		{"subtitle parsing error", engine.CategoryFormat},
		{"unknown failure", engine.CategoryOther},
		{"", engine.CategoryOther},
	}
	for _, tc := range cases {
		got := categorize(tc.fileError)
		if got.Category != tc.want {
			t.Errorf("categorize(%q) = %v, want %v", tc.fileError, got.Category, tc.want)
		}
	}
}

func TestDecodeHelpers(t *testing.T) {
	if v, ok := decodeFloat([]byte("12.5")); !ok || v != 12.5 {
		t.Errorf("decodeFloat = %v, %v", v, ok)
	}
	if _, ok := decodeFloat(nil); ok {
		t.Error("decodeFloat(nil) should fail")
	}
	if v, ok := decodeBool([]byte("true")); !ok || !v {
		t.Errorf("decodeBool = %v, %v", v, ok)
	}
	if _, ok := decodeBool([]byte(`"yes"`)); ok {
		t.Error("decodeBool of string should fail")
	}
}
