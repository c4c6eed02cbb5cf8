package probe

import (
	"context"
	"math"
	"testing"
)

const soxStatOutput = `Samples read:             16000
Length (seconds):      1.000000
Scaled by:         2147483647.0
Maximum amplitude:     0.312500
Minimum amplitude:    -0.284912
Midline amplitude:     0.013794
Mean    norm:          0.031982
Mean    amplitude:     0.000123
RMS     amplitude:     0.045678
Maximum delta:         0.152344
Rough   frequency:          441
Volume adjustment:        3.200
`

func TestParseRMSAmplitude(t *testing.T) {
	rms, ok := parseRMSAmplitude(soxStatOutput)
	if !ok {
		t.Fatal("expected to find RMS amplitude")
	}
	if math.Abs(rms-0.045678) > 1e-9 {
		t.Errorf("expected 0.045678, got %v", rms)
	}
}

func TestParseRMSAmplitudeMissing(t *testing.T) {
	if _, ok := parseRMSAmplitude("no stats here\n"); ok {
		t.Error("expected no match")
	}
	if _, ok := parseRMSAmplitude("RMS     amplitude:     not-a-number\n"); ok {
		t.Error("unparseable value should not match")
	}
}

func TestAmplitudeDB(t *testing.T) {
	cases := []struct {
		rms  float64
		want float64
	}{
		{1.0, 0},
		{0.1, -20},
		{0.01, -40},
		{0, QuietFloorDB},
		{-0.5, QuietFloorDB},
		{1e-9, QuietFloorDB}, // below the floor
	}
	for _, tc := range cases {
		got := amplitudeDB(tc.rms)
		if math.Abs(got-tc.want) > 0.01 {
			t.Errorf("amplitudeDB(%v) = %v, want %v", tc.rms, got, tc.want)
		}
	}
}

func TestRMSDB(t *testing.T) {
	// A constant 0.1 amplitude signal has RMS 0.1 = -20 dBFS.
	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = 0.1
	}
	if got := rmsDB(samples); math.Abs(got-(-20)) > 0.01 {
		t.Errorf("expected -20 dB, got %v", got)
	}

	silent := make([]float32, 1600)
	if got := rmsDB(silent); got != QuietFloorDB {
		t.Errorf("silence should floor at %v, got %v", QuietFloorDB, got)
	}
}

func TestSoxMissingDegradesToEstimate(t *testing.T) {
	p := &SoxLevel{device: "BlackHole 2ch", soxPath: ""}
	sample, err := p.Sample(context.Background())
	if err != nil {
		t.Fatalf("degraded probe must not fail: %v", err)
	}
	if sample.LevelDB != DegradedLevelDB {
		t.Errorf("expected %v, got %v", DegradedLevelDB, sample.LevelDB)
	}
	if sample.ObservedAt.IsZero() {
		t.Error("sample should carry an observation time")
	}
}

func TestContainsIgnoreCase(t *testing.T) {
	if !containsIgnoreCase("BlackHole 2ch", "blackhole") {
		t.Error("expected match")
	}
	if containsIgnoreCase("MacBook Pro Microphone", "blackhole") {
		t.Error("unexpected match")
	}
}
