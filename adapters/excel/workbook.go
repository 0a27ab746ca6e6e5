// Package excel exports run output as xlsx workbooks and reads
// aggregate tables back from spreadsheets.
package excel

import (
	"fmt"

	"qics/domain/galaxy"
	"qics/domain/run"
	"qics/domain/scaling"
	"qics/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	SheetGalaxies  = "Galaxies"
	SheetScaling   = "ScalingFit"
	SheetBootstrap = "Bootstrap"
)

// WorkbookWriter builds a multi-sheet workbook from run output.
type WorkbookWriter struct{}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter() *WorkbookWriter {
	return &WorkbookWriter{}
}

// Write saves the workbook to path. The study may be nil, in which
// case only the Galaxies sheet is written.
func (w *WorkbookWriter) Write(path string, manifest *run.Manifest, results []*galaxy.Result, study *scaling.Study) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeGalaxies(f, results); err != nil {
		return errors.StorageFailed("write galaxies sheet", err)
	}
	if study != nil {
		if err := w.writeScaling(f, study); err != nil {
			return errors.StorageFailed("write scaling sheet", err)
		}
		if study.Bootstrap != nil {
			if err := w.writeBootstrap(f, study.Bootstrap); err != nil {
				return errors.StorageFailed("write bootstrap sheet", err)
			}
		}
	}

	// The default sheet excelize creates is replaced by Galaxies.
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return errors.StorageFailed("save workbook", err)
	}
	return nil
}

func (w *WorkbookWriter) writeGalaxies(f *excelize.File, results []*galaxy.Result) error {
	if _, err := f.NewSheet(SheetGalaxies); err != nil {
		return err
	}

	header := []interface{}{
		"Galaxy", "Samples", "Usable", "Phase", "M",
		"MeanDeviationPct", "Zone", "EnergyExcessKms",
		"R", "V", "D_eff", "RMS", "ChiSq", "ReducedChiSq", "PValue",
	}
	if err := f.SetSheetRow(SheetGalaxies, "A1", &header); err != nil {
		return err
	}

	for i, r := range results {
		row := []interface{}{
			r.GalaxyID.String(), r.SampleCount, r.UsableCount,
			string(r.Phase), r.PhaseMetric,
			r.MeanDeviationPct, string(r.Zone), r.EnergyExcessKms,
			r.Scale.RadiusKpc, r.Scale.VelocityKms, r.Scale.DEff,
		}
		if r.Fit != nil {
			row = append(row, r.Fit.RMSKms, r.Fit.ChiSquared, r.Fit.ReducedChiSquared, r.Fit.PValue)
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetGalaxies, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) writeScaling(f *excelize.File, study *scaling.Study) error {
	if _, err := f.NewSheet(SheetScaling); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Fit", "Slope", "Intercept", "RSquared", "StdErr", "N"},
		{"galaxies", study.GalaxyFit.Slope, study.GalaxyFit.Intercept,
			study.GalaxyFit.RSquared, study.GalaxyFit.StdErr, study.GalaxyFit.N},
	}
	if study.CombinedFit != nil {
		rows = append(rows, []interface{}{
			"combined", study.CombinedFit.Slope, study.CombinedFit.Intercept,
			study.CombinedFit.RSquared, study.CombinedFit.StdErr, study.CombinedFit.N,
		})
	}

	rows = append(rows, []interface{}{})
	rows = append(rows, []interface{}{"Removed", "Slope", "RSquared"})
	for _, step := range study.Sensitivity {
		rows = append(rows, []interface{}{step.Removed, step.Slope, step.RSquared})
	}

	for i := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(SheetScaling, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) writeBootstrap(f *excelize.File, b *scaling.BootstrapResult) error {
	if _, err := f.NewSheet(SheetBootstrap); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Statistic", "Estimate", "Mean", "StdErr", "Bias", "CILow", "CIHigh"},
		{"slope", b.Fit.Slope, b.Slope.Mean, b.Slope.StdErr, b.Slope.Bias,
			b.Slope.CI.Low, b.Slope.CI.High},
		{"intercept", b.Fit.Intercept, b.Intercept.Mean, b.Intercept.StdErr,
			b.Intercept.Bias, b.Intercept.CI.Low, b.Intercept.CI.High},
		{"r_squared", b.Fit.RSquared, b.RSquared.Mean, b.RSquared.StdErr,
			b.RSquared.Bias, b.RSquared.CI.Low, b.RSquared.CI.High},
		{},
		{"Resamples", b.Resamples},
		{"Degenerate", b.Degenerate},
		{"Confidence", b.Confidence},
		{"Seed", b.Seed},
	}

	for i := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(SheetBootstrap, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}
