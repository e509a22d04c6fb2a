package pool

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestExtractMetrics_AllThree(t *testing.T) {
	text := "Temperature: 25.5°C\npH: 7.2\nORP: 720 mV"

	reading, err := ExtractMetrics(text, testTime)
	if err != nil {
		t.Fatalf("extraction failed: %v", err)
	}
	if reading.Temperature == nil || *reading.Temperature != 25.5 {
		t.Errorf("temperature = %v, want 25.5", reading.Temperature)
	}
	if reading.PH == nil || *reading.PH != 7.2 {
		t.Errorf("ph = %v, want 7.2", reading.PH)
	}
	if reading.ORP == nil || *reading.ORP != 720 {
		t.Errorf("orp = %v, want 720", reading.ORP)
	}
	if !reading.Timestamp.Equal(testTime) {
		t.Errorf("timestamp = %v, want %v", reading.Timestamp, testTime)
	}
}

func TestExtractMetrics_FrenchFormats(t *testing.T) {
	text := "Température: 24,8\nph = 7,15\nRedox: 680"

	reading, err := ExtractMetrics(text, testTime)
	if err != nil {
		t.Fatalf("extraction failed: %v", err)
	}
	if reading.Temperature == nil || *reading.Temperature != 24.8 {
		t.Errorf("temperature = %v, want 24.8", reading.Temperature)
	}
	if reading.PH == nil || *reading.PH != 7.15 {
		t.Errorf("ph = %v, want 7.15", reading.PH)
	}
	if reading.ORP == nil || *reading.ORP != 680 {
		t.Errorf("orp = %v, want 680", reading.ORP)
	}
}

func TestExtractMetrics_BareDegreeAndMillivolt(t *testing.T) {
	text := "The water is at 26.2°C today, sensor reports 715mV"

	reading, err := ExtractMetrics(text, testTime)
	if err != nil {
		t.Fatalf("extraction failed: %v", err)
	}
	if reading.Temperature == nil || *reading.Temperature != 26.2 {
		t.Errorf("temperature = %v, want 26.2", reading.Temperature)
	}
	if reading.ORP == nil || *reading.ORP != 715 {
		t.Errorf("orp = %v, want 715", reading.ORP)
	}
	if reading.PH != nil {
		t.Errorf("ph = %v, want nil", *reading.PH)
	}
}

func TestExtractMetrics_PHOutOfRange(t *testing.T) {
	reading, err := ExtractMetrics("pH: 15.0\nTemperature: 25.5", testTime)
	if err != nil {
		t.Fatalf("extraction failed: %v", err)
	}
	if reading.PH != nil {
		t.Errorf("out-of-range ph should be dropped, got %v", *reading.PH)
	}
	if reading.Temperature == nil {
		t.Error("temperature should still be extracted")
	}
}

func TestExtractMetrics_ORPOutOfRange(t *testing.T) {
	reading, err := ExtractMetrics("ORP: 1500 mV\npH: 7.0", testTime)
	if err != nil {
		t.Fatalf("extraction failed: %v", err)
	}
	if reading.ORP != nil {
		t.Errorf("out-of-range orp should be dropped, got %v", *reading.ORP)
	}
}

func TestExtractMetrics_NoneFound(t *testing.T) {
	_, err := ExtractMetrics("Your weekly newsletter", testTime)
	if !errors.Is(err, ErrNoMetrics) {
		t.Errorf("expected ErrNoMetrics, got %v", err)
	}
}

func TestExtractMetrics_SubsetIsSuccess(t *testing.T) {
	reading, err := ExtractMetrics("pH: 7.4", testTime)
	if err != nil {
		t.Fatalf("extraction failed: %v", err)
	}
	if reading.PH == nil || *reading.PH != 7.4 {
		t.Errorf("ph = %v, want 7.4", reading.PH)
	}
	if reading.Temperature != nil || reading.ORP != nil {
		t.Error("temperature and orp should be nil")
	}
}

// Any in-range pH rendered with a label is recovered exactly; any
// out-of-range pH is dropped.
func TestExtractMetrics_PHRangeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		whole := rapid.IntRange(0, 99).Draw(t, "whole")
		frac := rapid.IntRange(0, 9).Draw(t, "frac")
		value := float64(whole) + float64(frac)/10

		text := fmt.Sprintf("pH: %d.%d", whole, frac)
		reading, err := ExtractMetrics(text, testTime)

		if value >= phMin && value <= phMax {
			if err != nil {
				t.Fatalf("extraction failed for in-range ph %v: %v", value, err)
			}
			if reading.PH == nil || *reading.PH != value {
				t.Fatalf("ph = %v, want %v", reading.PH, value)
			}
		} else {
			if !errors.Is(err, ErrNoMetrics) {
				t.Fatalf("expected ErrNoMetrics for out-of-range ph %v, got %v", value, err)
			}
		}
	})
}
