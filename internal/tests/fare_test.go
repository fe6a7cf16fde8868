package tests

import (
	"math"
	"testing"
	"time"

	"bikeshare/internal/redis"
	"bikeshare/internal/service"
)

// ──────────────────────────────────────────────
// FARE CALCULATOR: DISTANCE AND DURATION
// ──────────────────────────────────────────────

func TestHaversine_KnownDistances(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		lat1, lng1 float64
		lat2, lng2 float64
		expectedKm float64
		tolerance  float64
	}{
		{
			name: "identical points",
			lat1: 48.8566, lng1: 2.3522,
			lat2: 48.8566, lng2: 2.3522,
			expectedKm: 0,
			tolerance:  0.0001,
		},
		{
			name: "one degree of longitude at the equator",
			lat1: 0, lng1: 0,
			lat2: 0, lng2: 1,
			expectedKm: 111.19,
			tolerance:  0.1,
		},
		{
			name: "short urban hop",
			lat1: 52.5200, lng1: 13.4050,
			lat2: 52.5305, lng2: 13.3846,
			expectedKm: 1.81,
			tolerance:  0.05,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := service.Haversine(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.expectedKm) > tt.tolerance {
				t.Errorf("expected ~%.2f km, got %.4f km", tt.expectedKm, got)
			}

			// Symmetric in both directions.
			reverse := service.Haversine(tt.lat2, tt.lng2, tt.lat1, tt.lng1)
			if math.Abs(got-reverse) > 1e-9 {
				t.Errorf("distance not symmetric: %.9f vs %.9f", got, reverse)
			}
		})
	}
}

func TestTraceDistance_SumsConsecutivePairs(t *testing.T) {
	t.Parallel()

	// Three points along the equator: 0->0.5 and 0.5->1.0 degrees of
	// longitude. The sum must equal the single 0->1.0 hop.
	trace := []redis.TracePoint{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.5},
		{Lat: 0, Lng: 1.0},
	}

	got := service.TraceDistance(trace)
	want := service.Haversine(0, 0, 0, 1.0)
	if math.Abs(got-want) > 0.001 {
		t.Errorf("expected %.4f km, got %.4f km", want, got)
	}
}

func TestTraceDistance_FewerThanTwoPoints(t *testing.T) {
	t.Parallel()

	if d := service.TraceDistance(nil); d != 0 {
		t.Errorf("expected 0 for empty trace, got %f", d)
	}
	if d := service.TraceDistance([]redis.TracePoint{{Lat: 1, Lng: 1}}); d != 0 {
		t.Errorf("expected 0 for single-point trace, got %f", d)
	}
}

func TestReconcileDistance_AdoptionRule(t *testing.T) {
	t.Parallel()

	// Straight line along the equator: 0 -> 1 degree, ~111.19 km.
	straight := service.Haversine(0, 0, 0, 1.0)

	tests := []struct {
		name        string
		trace       []redis.TracePoint
		wantTraced  bool
		description string
	}{
		{
			name: "plausible detour is adopted",
			// Dog-leg through a point off the straight line: longer than
			// straight but well under 3x.
			trace: []redis.TracePoint{
				{Lat: 0, Lng: 0},
				{Lat: 0.3, Lng: 0.5},
				{Lat: 0, Lng: 1.0},
			},
			wantTraced: true,
		},
		{
			name: "trace shorter than straight line is rejected",
			// Trace covering only part of the trip.
			trace: []redis.TracePoint{
				{Lat: 0, Lng: 0},
				{Lat: 0, Lng: 0.2},
			},
			wantTraced: false,
		},
		{
			name: "trace at least 3x straight line is noise",
			// Zig-zag inflating the distance past the cap.
			trace: []redis.TracePoint{
				{Lat: 0, Lng: 0},
				{Lat: 1.5, Lng: 0.5},
				{Lat: -1.5, Lng: 0.7},
				{Lat: 0, Lng: 1.0},
			},
			wantTraced: false,
		},
		{
			name:       "empty trace keeps straight line",
			trace:      nil,
			wantTraced: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := service.ReconcileDistance(straight, tt.trace)
			traced := service.TraceDistance(tt.trace)

			if tt.wantTraced {
				if math.Abs(got-traced) > 1e-9 {
					t.Errorf("expected traced distance %.4f, got %.4f", traced, got)
				}
				if got <= straight || got >= straight*3 {
					t.Errorf("adopted distance %.4f outside (straight, 3x straight) window", got)
				}
			} else {
				if math.Abs(got-straight) > 1e-9 {
					t.Errorf("expected straight-line distance %.4f, got %.4f", straight, got)
				}
			}
		})
	}
}

func TestTripDuration_FloorsToWholeMinutes(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		end     time.Time
		want    int
		wantErr bool
	}{
		{name: "zero duration", end: start, want: 0},
		{name: "59 seconds floors to zero", end: start.Add(59 * time.Second), want: 0},
		{name: "exactly one minute", end: start.Add(time.Minute), want: 1},
		{name: "20m30s floors to 20", end: start.Add(20*time.Minute + 30*time.Second), want: 20},
		{name: "end before start fails", end: start.Add(-time.Second), wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := service.TripDuration(start, tt.end)
			if tt.wantErr {
				if err != service.ErrInvalidTimeRange {
					t.Errorf("expected ErrInvalidTimeRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d minutes, got %d", tt.want, got)
			}
		})
	}
}
