package ui

import (
	"html/template"
	"net/http"

	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/domain/run"
	"qics/internal/errors"
	"qics/internal/report"

	"github.com/go-chi/chi/v5"
)

type indexData struct {
	Runs []*run.Manifest
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := a.repo.ListRuns(r.Context())
	if err != nil {
		a.logger.Error("list runs: %v", err)
		http.Error(w, "Failed to load runs", http.StatusInternalServerError)
		return
	}
	a.renderTemplate(w, "index.html", indexData{Runs: runs})
}

type runDetailData struct {
	Manifest *run.Manifest
	Results  []*galaxy.Result
	Report   template.HTML
}

// loadRun gathers everything the detail handlers need. The scaling
// study is optional.
func (a *App) loadRun(r *http.Request) (*report.Input, error) {
	ctx := r.Context()
	runID := core.RunID(chi.URLParam(r, "id"))

	manifest, err := a.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	results, err := a.repo.ListGalaxyResults(ctx, runID)
	if err != nil {
		return nil, err
	}
	study, err := a.repo.GetScalingStudy(ctx, runID)
	if err != nil && errors.GetCode(err) != errors.CodeNotFound {
		return nil, err
	}

	return &report.Input{Manifest: manifest, Results: results, Study: study}, nil
}

func (a *App) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	in, err := a.loadRun(r)
	if err != nil {
		a.failRun(w, err)
		return
	}

	a.renderTemplate(w, "run.html", runDetailData{
		Manifest: in.Manifest,
		Results:  in.Results,
		Report:   template.HTML(report.RenderHTML(*in)),
	})
}

func (a *App) handleRunReportMarkdown(w http.ResponseWriter, r *http.Request) {
	in, err := a.loadRun(r)
	if err != nil {
		a.failRun(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(report.Render(*in)))
}

func (a *App) failRun(w http.ResponseWriter, err error) {
	if errors.GetCode(err) == errors.CodeNotFound {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	a.logger.Error("load run: %v", err)
	http.Error(w, "Failed to load run", http.StatusInternalServerError)
}
