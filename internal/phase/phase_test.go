package phase

import (
	"math"
	"testing"

	"qics/internal/errors"
)

func TestMetric_ScaleInvariance(t *testing.T) {
	radii := []float64{0.5, 1.2, 2.5, 4.8, 7.1, 10.3, 14.0}
	vObs := []float64{40, 75, 98, 110, 116, 119, 120}
	cfg := DefaultConfig()

	base, err := Metric(radii, vObs, cfg)
	if err != nil {
		t.Fatalf("Metric failed: %v", err)
	}

	// Scaling every velocity by k shifts log(v^2/r) by 2*log(k); the
	// variance must not move.
	for _, k := range []float64{0.5, 2, 10, 137.0} {
		scaled := make([]float64, len(vObs))
		for i, v := range vObs {
			scaled[i] = k * v
		}
		m, err := Metric(radii, scaled, cfg)
		if err != nil {
			t.Fatalf("Metric(k=%g) failed: %v", k, err)
		}
		if math.Abs(m-base) > 1e-9 {
			t.Errorf("metric changed under velocity scaling k=%g: %g vs %g", k, m, base)
		}
	}
}

func TestMetric_ConstantGradientIsZero(t *testing.T) {
	// v^2/r constant across the curve: variance of the log must vanish.
	radii := []float64{1, 4, 9, 16, 25}
	vObs := []float64{10, 20, 30, 40, 50}

	m, err := Metric(radii, vObs, DefaultConfig())
	if err != nil {
		t.Fatalf("Metric failed: %v", err)
	}
	if m > 1e-20 {
		t.Errorf("constant-gradient metric = %g, want ~0", m)
	}
}

func TestMetric_FiltersNonPositiveSamples(t *testing.T) {
	radii := []float64{-1, 0, 1, 2, 3, 4, 5}
	vObs := []float64{50, 60, 70, 0, 90, 100, 110}
	cfg := DefaultConfig()

	// Survivors: radii 1,3,4,5 -> 4 points < MinPoints 5.
	_, err := Metric(radii, vObs, cfg)
	if err == nil {
		t.Fatal("expected insufficient-samples exclusion")
	}
	if errors.GetCode(err) != errors.CodeInsufficientSamples {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeInsufficientSamples)
	}
}

func TestMetric_MinPointsGate(t *testing.T) {
	radii := []float64{1, 2, 3}
	vObs := []float64{50, 60, 70}

	_, err := Metric(radii, vObs, DefaultConfig())
	if err == nil {
		t.Fatal("3 usable samples must be excluded, not analyzed")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		m    float64
		want Class
	}{
		{0, ClassOrdered},
		{0.49, ClassOrdered},
		{0.5, ClassChaotic},
		{3.2, ClassChaotic},
	}

	for _, tc := range cases {
		if got := Classify(tc.m, 0.5); got != tc.want {
			t.Errorf("Classify(%g) = %s, want %s", tc.m, got, tc.want)
		}
	}
}

func TestLegacyLandscapeMetric_FiniteOnDegenerateInput(t *testing.T) {
	// Zero radii and matched velocities exercise the nan-to-zero path.
	radii := []float64{0, 1, 2, 3}
	vObs := []float64{100, 100, 100, 100}
	vBar := []float64{100, 100, 100, 100}

	m, err := LegacyLandscapeMetric(radii, vObs, vBar)
	if err != nil {
		t.Fatalf("LegacyLandscapeMetric failed: %v", err)
	}
	if math.IsNaN(m) || math.IsInf(m, 0) {
		t.Errorf("legacy metric = %g, want finite", m)
	}
}

func TestLegacyDisagreesWithCanonical(t *testing.T) {
	// The two formulations are different statistics; this pins the
	// fact so the legacy one is never silently substituted.
	radii := []float64{0.5, 1.5, 3, 5, 8, 12}
	vObs := []float64{30, 70, 95, 108, 114, 117}
	vBar := []float64{28, 60, 78, 82, 80, 75}

	canonical, err := Metric(radii, vObs, DefaultConfig())
	if err != nil {
		t.Fatalf("Metric failed: %v", err)
	}
	legacy, err := LegacyLandscapeMetric(radii, vObs, vBar)
	if err != nil {
		t.Fatalf("LegacyLandscapeMetric failed: %v", err)
	}

	if math.Abs(canonical-legacy) < 1e-12 {
		t.Errorf("canonical (%g) and legacy (%g) metrics unexpectedly agree", canonical, legacy)
	}
}
