package scaling

import (
	"math"
	"testing"

	"qics/domain/core"
	domain "qics/domain/scaling"
)

func TestFitLogLog_PerfectPowerLaw(t *testing.T) {
	// D_eff = R^1.5 exactly, so the log-log fit is noise-free: the
	// log10 pairs (0,0), (2,3), (4,6) sit on a slope-1.5 line through
	// the origin.
	radii := []float64{1, 100, 10000}
	scales := []float64{1, 1000, 1000000}

	fit, err := FitLogLog(radii, scales)
	if err != nil {
		t.Fatalf("FitLogLog failed: %v", err)
	}

	if math.Abs(fit.Slope-1.5) > 1e-9 {
		t.Errorf("slope = %g, want 1.5", fit.Slope)
	}
	if math.Abs(fit.Intercept) > 1e-9 {
		t.Errorf("intercept = %g, want 0", fit.Intercept)
	}
	if math.Abs(fit.RSquared-1) > 1e-9 {
		t.Errorf("R^2 = %g, want 1", fit.RSquared)
	}
	if fit.StdErr > 1e-9 {
		t.Errorf("slope standard error = %g, want ~0 on a noise-free fit", fit.StdErr)
	}
	if fit.N != 3 {
		t.Errorf("N = %d, want 3", fit.N)
	}
}

func TestFitLogLog_RejectsNonPositive(t *testing.T) {
	if _, err := FitLogLog([]float64{1, 0, 3}, []float64{1, 2, 3}); err == nil {
		t.Error("zero radius must be rejected")
	}
	if _, err := FitLogLog([]float64{1, 2, 3}, []float64{1, -2, 3}); err == nil {
		t.Error("negative D_eff must be rejected")
	}
}

func TestFitLogLog_TooFewPoints(t *testing.T) {
	if _, err := FitLogLog([]float64{1, 2}, []float64{1, 2}); err == nil {
		t.Error("two points cannot constrain slope and standard error")
	}
}

func TestFitLogLog_NoSpread(t *testing.T) {
	if _, err := FitLogLog([]float64{5, 5, 5}, []float64{1, 2, 3}); err == nil {
		t.Error("a constant R column must be rejected, not produce NaN")
	}
}

func TestExtractScale_FirstMaxWins(t *testing.T) {
	// Two bins tie at the maximum radius; the first occurrence is the
	// representative point.
	radii := []float64{1, 5, 12, 12}
	vObs := []float64{50, 90, 110, 70}

	r, vAtR, dEff, err := ExtractScale(radii, vObs)
	if err != nil {
		t.Fatalf("ExtractScale failed: %v", err)
	}
	if r != 12 || vAtR != 110 {
		t.Errorf("scale = (%g, %g), want (12, 110)", r, vAtR)
	}
	if math.Abs(dEff-12*110) > 1e-12 {
		t.Errorf("D_eff = %g, want %g", dEff, 12.0*110)
	}
}

func TestBuildDataset_RejectsNonPositiveRows(t *testing.T) {
	points := []domain.Point{
		{GalaxyID: "A", RadiusKpc: 10, DEff: 1000},
		{GalaxyID: "B", RadiusKpc: 0, DEff: 1000},
		{GalaxyID: "C", RadiusKpc: 10, DEff: -5},
		{GalaxyID: "D", RadiusKpc: 22, DEff: 2900},
	}

	ds, rejected, err := BuildDataset(points)
	if err != nil {
		t.Fatalf("BuildDataset failed: %v", err)
	}
	if rejected != 2 {
		t.Errorf("rejected = %d, want 2", rejected)
	}
	if ds.Len() != 2 {
		t.Errorf("kept = %d, want 2", ds.Len())
	}
}

func TestBuildDataset_EmptyIsError(t *testing.T) {
	_, _, err := BuildDataset([]domain.Point{{GalaxyID: "A", RadiusKpc: -1, DEff: 2}})
	if err == nil {
		t.Fatal("an empty surviving dataset must be reported, not fitted")
	}
}

func TestCombinedColumns_AppendsReferences(t *testing.T) {
	ds := &domain.Dataset{Points: []domain.Point{
		{GalaxyID: "A", RadiusKpc: 10, DEff: 1100},
	}}
	refs := []domain.ReferencePoint{
		{Label: "Filament Core", RadiusKpc: 50, VelocityKms: 110},
	}

	radii, scales := CombinedColumns(ds, refs)
	if len(radii) != 2 || len(scales) != 2 {
		t.Fatalf("combined columns have %d/%d entries, want 2/2", len(radii), len(scales))
	}
	if radii[1] != 50 || scales[1] != 50*110 {
		t.Errorf("reference row = (%g, %g), want (50, %g)", radii[1], scales[1], 50.0*110)
	}
}

func TestOutlierSensitivity_StabilizesCleanData(t *testing.T) {
	labels := []core.GalaxyID{"A", "B", "C", "D", "E", "F", "outlier"}
	radii := []float64{1, 2, 4, 8, 16, 32, 64}
	scales := make([]float64, len(radii))
	for i, r := range radii {
		scales[i] = 100 * math.Pow(r, 1.5)
	}
	// One point pulled far off the relation.
	scales[6] *= 40

	steps, err := OutlierSensitivity(labels, radii, scales, 3)
	if err != nil {
		t.Fatalf("OutlierSensitivity failed: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(steps))
	}

	// The planted outlier carries the largest residual, so it is the
	// first point removed, and the k=1 refit recovers the clean law.
	if len(steps[0].Dropped) != 1 || steps[0].Dropped[0] != "outlier" {
		t.Errorf("first removal = %v, want the planted outlier", steps[0].Dropped)
	}
	if math.Abs(steps[0].Slope-1.5) > 1e-9 {
		t.Errorf("k=1 slope = %g, want 1.5", steps[0].Slope)
	}
	if math.Abs(steps[0].RSquared-1) > 1e-9 {
		t.Errorf("k=1 R^2 = %g, want 1", steps[0].RSquared)
	}
}

func TestOutlierSensitivity_CapsRemovals(t *testing.T) {
	labels := []core.GalaxyID{"A", "B", "C", "D", "E"}
	radii := []float64{1, 2, 4, 8, 16}
	scales := []float64{10, 30, 85, 240, 700}

	// Asking for more removals than the fit can survive caps at n-3.
	steps, err := OutlierSensitivity(labels, radii, scales, 10)
	if err != nil {
		t.Fatalf("OutlierSensitivity failed: %v", err)
	}
	if len(steps) != 2 {
		t.Errorf("got %d steps, want 2 (capped at n-3)", len(steps))
	}
}
