// Package report renders a batch run into a markdown summary and, for
// the dashboard, into HTML.
package report

import (
	"fmt"
	"sort"
	"strings"

	"qics/domain/galaxy"
	"qics/domain/run"
	"qics/domain/scaling"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Input collects everything a run report can draw on. Results are
// required; the study is optional and its sections are omitted when
// absent.
type Input struct {
	Manifest *run.Manifest
	Results  []*galaxy.Result
	Study    *scaling.Study
}

// Render produces the markdown report.
func Render(in Input) string {
	var b strings.Builder

	writeHeader(&b, in.Manifest)
	writeCensus(&b, in.Manifest)
	writeDeviationSpectrum(&b, in.Results)
	if in.Study != nil {
		writeScaling(&b, in.Study)
	}

	return b.String()
}

// RenderHTML converts the markdown report for the dashboard.
func RenderHTML(in Input) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(Render(in)))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func writeHeader(b *strings.Builder, m *run.Manifest) {
	fmt.Fprintf(b, "# Run %s\n\n", m.RunID)
	fmt.Fprintf(b, "- Data: `%s` (pattern `%s`)\n", m.DataDir, m.Pattern)
	fmt.Fprintf(b, "- Started: %s\n", m.StartedAt)
	if !m.FinishedAt.IsZero() {
		fmt.Fprintf(b, "- Finished: %s\n", m.FinishedAt)
	}
	fmt.Fprintf(b, "- Seed: %d, code %s\n", m.Seed, m.CodeVersion)
	fmt.Fprintf(b, "- Files: %d seen, %d skipped\n\n", m.FilesSeen, m.FilesSkipped)
}

func writeCensus(b *strings.Builder, m *run.Manifest) {
	c := m.Census
	fmt.Fprintf(b, "## Phase census\n\n")
	fmt.Fprintf(b, "| Class | Count | Fraction |\n|---|---|---|\n")
	fmt.Fprintf(b, "| ordered | %d | %.1f%% |\n", c.Ordered, 100*c.OrderedFraction())
	fmt.Fprintf(b, "| chaotic | %d | %.1f%% |\n", c.Chaotic, 100*c.ChaoticFraction())
	fmt.Fprintf(b, "| excluded | %d | - |\n\n", c.Excluded)
}

// writeDeviationSpectrum lists galaxies by signed mean deviation, the
// most negative first, with their zone labels.
func writeDeviationSpectrum(b *strings.Builder, results []*galaxy.Result) {
	classified := make([]*galaxy.Result, 0, len(results))
	for _, r := range results {
		if !r.Excluded() {
			classified = append(classified, r)
		}
	}
	if len(classified) == 0 {
		return
	}
	sort.Slice(classified, func(i, j int) bool {
		return classified[i].MeanDeviationPct < classified[j].MeanDeviationPct
	})

	fmt.Fprintf(b, "## Deviation spectrum\n\n")
	fmt.Fprintf(b, "| Galaxy | Deviation | Zone | M | Phase |\n|---|---|---|---|---|\n")
	for _, r := range classified {
		fmt.Fprintf(b, "| %s | %+.1f%% | %s | %.3f | %s |\n",
			r.GalaxyID, r.MeanDeviationPct, r.Zone, r.PhaseMetric, r.Phase)
	}
	b.WriteString("\n")
}

func writeScaling(b *strings.Builder, study *scaling.Study) {
	fmt.Fprintf(b, "## Scaling law\n\n")
	writeFit(b, "Galaxies only", study.GalaxyFit)
	if study.CombinedFit != nil {
		writeFit(b, "Galaxies + reference structures", *study.CombinedFit)
	}
	if study.RejectedRows > 0 {
		fmt.Fprintf(b, "%d rows rejected for non-positive R or D_eff.\n\n", study.RejectedRows)
	}

	if boot := study.Bootstrap; boot != nil {
		fmt.Fprintf(b, "### Bootstrap (%d resamples, %.0f%% CI, seed %d)\n\n",
			boot.Resamples, 100*boot.Confidence, boot.Seed)
		fmt.Fprintf(b, "| Statistic | Mean | Std | CI low | CI high | Bias |\n|---|---|---|---|---|---|\n")
		writeSummaryRow(b, "slope", boot.Slope)
		writeSummaryRow(b, "intercept", boot.Intercept)
		writeSummaryRow(b, "R^2", boot.RSquared)
		if boot.Degenerate > 0 {
			fmt.Fprintf(b, "\n%d degenerate resamples fell back to the original fit.\n", boot.Degenerate)
		}
		b.WriteString("\n")
	}

	if len(study.Sensitivity) > 0 {
		fmt.Fprintf(b, "### Outlier sensitivity\n\n")
		fmt.Fprintf(b, "| Removed | Slope | R^2 | Dropped |\n|---|---|---|---|\n")
		for _, step := range study.Sensitivity {
			labels := make([]string, len(step.Dropped))
			for i, id := range step.Dropped {
				labels[i] = id.String()
			}
			fmt.Fprintf(b, "| %d | %.4f | %.4f | %s |\n",
				step.Removed, step.Slope, step.RSquared, strings.Join(labels, ", "))
		}
		b.WriteString("\n")
	}
}

func writeFit(b *strings.Builder, label string, fit scaling.FitResult) {
	fmt.Fprintf(b, "**%s** (n=%d): slope %.4f +/- %.4f, intercept %.4f, R^2 %.4f\n\n",
		label, fit.N, fit.Slope, fit.StdErr, fit.Intercept, fit.RSquared)
}

func writeSummaryRow(b *strings.Builder, name string, s scaling.DistributionSummary) {
	fmt.Fprintf(b, "| %s | %.4f | %.4f | %.4f | %.4f | %+.4f |\n",
		name, s.Mean, s.StdErr, s.CI.Low, s.CI.High, s.Bias)
}
