package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: "", wantErr: false},
		{name: "Local returns local", timezone: "Local", wantErr: false},
		{name: "valid timezone UTC", timezone: "UTC", wantErr: false},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestParseTimeToMinutes(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"07:30", 450, false},
		{"23:59", 1439, false},
		{" 09:05 ", 545, false},
		{"24:00", 0, true},
		{"9am", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeToMinutes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeToMinutes(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseTimeToMinutes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "00:00"},
		{450, "07:30"},
		{1440, "00:00"},
		{1470, "00:30"},
		{-30, "23:30"},
	}
	for _, tt := range tests {
		if got := FormatMinutes(tt.minutes); got != tt.want {
			t.Errorf("FormatMinutes(%d) = %s, want %s", tt.minutes, got, tt.want)
		}
	}
}

func TestWindowMinutes(t *testing.T) {
	s, e, err := WindowMinutes("22:00", "01:30")
	if err != nil {
		t.Fatalf("WindowMinutes() unexpected error: %v", err)
	}
	if s != 1320 || e != 1530 {
		t.Errorf("WindowMinutes() = (%d, %d), want (1320, 1530)", s, e)
	}

	if _, _, err := WindowMinutes("bad", "01:30"); err == nil {
		t.Error("WindowMinutes() expected error for malformed start")
	}
}

func TestOffsetFrom(t *testing.T) {
	got, err := OffsetFrom(420, "06:00")
	if err != nil {
		t.Fatalf("OffsetFrom() unexpected error: %v", err)
	}
	if got != 1380 {
		t.Errorf("OffsetFrom(07:00, 06:00) = %d, want 1380", got)
	}
}

func TestNormalizeDate(t *testing.T) {
	got, err := NormalizeDate("2025-03-04", "UTC")
	if err != nil || got != "2025-03-04" {
		t.Errorf("NormalizeDate() = %q, %v", got, err)
	}

	today, err := NormalizeDate("today", "UTC")
	if err != nil {
		t.Fatalf("NormalizeDate(today) unexpected error: %v", err)
	}
	if today != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("NormalizeDate(today) = %q", today)
	}

	if _, err := NormalizeDate("03/04/2025", "UTC"); err == nil {
		t.Error("NormalizeDate() expected error for malformed date")
	}
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2025-12-31", 1)
	if err != nil || got != "2026-01-01" {
		t.Errorf("AddDays() = %q, %v", got, err)
	}
}

func TestNewRandSeeded(t *testing.T) {
	a := NewRand(42)
	b := NewRand(42)
	for i := 0; i < 5; i++ {
		if a.IntN(1000) != b.IntN(1000) {
			t.Fatal("generators with equal seeds diverged")
		}
	}

	values := []string{"a", "b", "c", "d"}
	shuffled := Shuffled(NewRand(7), values)
	if len(shuffled) != len(values) {
		t.Fatalf("Shuffled() length = %d", len(shuffled))
	}
	if values[0] != "a" {
		t.Error("Shuffled() mutated its input")
	}
}
