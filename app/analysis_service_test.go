package app

import (
	"math"
	"testing"

	"qics/domain/galaxy"
	"qics/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load failed: %v", err)
	}
	return cfg
}

func spiralCurve(t *testing.T) *galaxy.Curve {
	t.Helper()

	samples := make([]galaxy.Sample, 0, 20)
	for i := 1; i <= 20; i++ {
		r := float64(i)
		samples = append(samples, galaxy.Sample{
			RadiusKpc: r,
			VObsKms:   133 * (1 - math.Exp(-r/3)),
			VErrKms:   5,
			VGasKms:   20 * r / 10,
			VDiskKms:  90 * (r / 2.5) * math.Exp(-r/7),
		})
	}

	curve, err := galaxy.NewCurve("NGC2403", "test", samples)
	if err != nil {
		t.Fatalf("NewCurve failed: %v", err)
	}
	return curve
}

func TestAnalyzeCurve_FullPipeline(t *testing.T) {
	svc := NewAnalysisService(testConfig(t))

	result, err := svc.AnalyzeCurve(spiralCurve(t))
	if err != nil {
		t.Fatalf("AnalyzeCurve failed: %v", err)
	}

	if result.Excluded() {
		t.Fatal("a 20-point curve must not be excluded")
	}
	if result.Phase != galaxy.PhaseOrdered && result.Phase != galaxy.PhaseChaotic {
		t.Errorf("phase = %q", result.Phase)
	}
	if result.PhaseMetric < 0 {
		t.Errorf("phase metric = %g, must be non-negative", result.PhaseMetric)
	}
	if result.Fit == nil || result.Fit.RMSKms <= 0 {
		t.Fatalf("fit stats = %+v", result.Fit)
	}
	if result.Fit.DegreesOfFreedom != 20 {
		t.Errorf("dof = %d, want 20 (zero free parameters)", result.Fit.DegreesOfFreedom)
	}
	if result.Scale.RadiusKpc != 20 {
		t.Errorf("representative radius = %g, want the outermost 20", result.Scale.RadiusKpc)
	}
	if math.Abs(result.Scale.DEff-result.Scale.RadiusKpc*result.Scale.VelocityKms) > 1e-9 {
		t.Errorf("D_eff = %g inconsistent with R*v", result.Scale.DEff)
	}
	if result.EnergyExcessKms < 0 {
		t.Errorf("energy excess = %g", result.EnergyExcessKms)
	}
	if result.Zone == "" {
		t.Error("zone not classified")
	}
}

func TestAnalyzeCurve_TooFewSamplesExcluded(t *testing.T) {
	svc := NewAnalysisService(testConfig(t))

	curve, err := galaxy.NewCurve("DDO000", "test", []galaxy.Sample{
		{RadiusKpc: 1, VObsKms: 20},
		{RadiusKpc: 2, VObsKms: 30},
		{RadiusKpc: 3, VObsKms: 35},
	})
	if err != nil {
		t.Fatalf("NewCurve failed: %v", err)
	}

	result, err := svc.AnalyzeCurve(curve)
	if err != nil {
		t.Fatalf("exclusion must not be an error, got: %v", err)
	}
	if !result.Excluded() {
		t.Error("3 usable samples must be excluded")
	}

	if _, ok := AggregateRow(result); ok {
		t.Error("excluded galaxies must not contribute an aggregate row")
	}
}

func TestAnalyzeCurve_FilterAppliesBeforeGate(t *testing.T) {
	svc := NewAnalysisService(testConfig(t))

	// Seven samples, but only four survive the positivity filter.
	curve, err := galaxy.NewCurve("UGC999", "test", []galaxy.Sample{
		{RadiusKpc: -1, VObsKms: 20},
		{RadiusKpc: 0, VObsKms: 30},
		{RadiusKpc: 1, VObsKms: 0},
		{RadiusKpc: 2, VObsKms: 35},
		{RadiusKpc: 3, VObsKms: 40},
		{RadiusKpc: 4, VObsKms: 44},
		{RadiusKpc: 5, VObsKms: 46},
	})
	if err != nil {
		t.Fatalf("NewCurve failed: %v", err)
	}

	result, err := svc.AnalyzeCurve(curve)
	if err != nil {
		t.Fatalf("AnalyzeCurve failed: %v", err)
	}
	if !result.Excluded() {
		t.Error("four filtered samples must fall below the five-point gate")
	}
	if result.UsableCount != 4 {
		t.Errorf("usable count = %d, want 4", result.UsableCount)
	}
}

func TestAggregateRow_CarriesScaleAndMetric(t *testing.T) {
	svc := NewAnalysisService(testConfig(t))

	result, err := svc.AnalyzeCurve(spiralCurve(t))
	if err != nil {
		t.Fatalf("AnalyzeCurve failed: %v", err)
	}

	row, ok := AggregateRow(result)
	if !ok {
		t.Fatal("analyzed galaxy must produce a row")
	}
	if row.Galaxy != "NGC2403" || row.R != result.Scale.RadiusKpc || row.DEff != result.Scale.DEff || row.M != result.PhaseMetric {
		t.Errorf("row = %+v inconsistent with result", row)
	}
}
