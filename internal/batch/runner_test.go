package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"qics/app"
	"qics/domain/galaxy"
	"qics/internal/config"
	"qics/internal/simkit"
	"qics/internal/sparc"
)

func writeTestDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	gen, err := simkit.NewGenerator(simkit.DefaultConfig())
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	curves, err := gen.GenerateBatch(3)
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}
	for _, curve := range curves {
		f, err := os.Create(filepath.Join(dir, string(curve.ID)+"_rotmod.dat"))
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := sparc.Write(f, curve); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		f.Close()
	}

	// One unreadable table and one too short for the sample gate.
	if err := os.WriteFile(filepath.Join(dir, "BROKEN_rotmod.dat"), []byte("# nothing but comments\n"), 0o644); err != nil {
		t.Fatalf("write broken file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "TINY_rotmod.dat"), []byte("1 20\n2 30\n3 35\n"), 0o644); err != nil {
		t.Fatalf("write tiny file: %v", err)
	}

	return dir
}

func newRunner(t *testing.T) (*Runner, *config.Config) {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load failed: %v", err)
	}
	return NewRunner(cfg, app.NewAnalysisService(cfg)), cfg
}

func TestRun_RecoversPerFile(t *testing.T) {
	dir := writeTestDir(t)
	runner, _ := newRunner(t)

	outcome, err := runner.Run(context.Background(), dir, "*_rotmod.dat")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	m := outcome.Manifest
	if m.FilesSeen != 5 {
		t.Errorf("files seen = %d, want 5", m.FilesSeen)
	}
	// The comment-only file is a load skip; the three-row file loads
	// but is excluded by the sample gate.
	if m.FilesSkipped != 1 {
		t.Errorf("files skipped = %d, want 1", m.FilesSkipped)
	}
	if m.Census.Excluded != 1 {
		t.Errorf("excluded = %d, want 1", m.Census.Excluded)
	}
	if got := m.Census.Ordered + m.Census.Chaotic; got != 3 {
		t.Errorf("classified = %d, want 3", got)
	}
	if len(outcome.Rows) != 3 {
		t.Errorf("aggregate rows = %d, want 3", len(outcome.Rows))
	}
	if m.Status != "completed" {
		t.Errorf("status = %s", m.Status)
	}
}

func TestRun_ResultsSortedByGalaxy(t *testing.T) {
	dir := writeTestDir(t)
	runner, cfg := newRunner(t)
	cfg.Batch.Concurrency = 4

	outcome, err := runner.Run(context.Background(), dir, "*_rotmod.dat")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i := 1; i < len(outcome.Results); i++ {
		if outcome.Results[i-1].GalaxyID > outcome.Results[i].GalaxyID {
			t.Fatal("results not sorted by galaxy identifier")
		}
	}
}

func TestRun_EmptyDirIsError(t *testing.T) {
	runner, _ := newRunner(t)

	if _, err := runner.Run(context.Background(), t.TempDir(), "*_rotmod.dat"); err == nil {
		t.Error("a matchless glob must be reported")
	}
}

func TestRun_DeterministicManifestFingerprint(t *testing.T) {
	dir := writeTestDir(t)
	runner, _ := newRunner(t)

	a, err := runner.Run(context.Background(), dir, "*_rotmod.dat")
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	b, err := runner.Run(context.Background(), dir, "*_rotmod.dat")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if a.Manifest.Fingerprint.Fingerprint != b.Manifest.Fingerprint.Fingerprint {
		t.Error("same data and config produced different fingerprints")
	}
	if a.Manifest.RunID == b.Manifest.RunID {
		t.Error("distinct runs share a RunID")
	}
}

func TestRun_ExcludedResultsStillReported(t *testing.T) {
	dir := writeTestDir(t)
	runner, _ := newRunner(t)

	outcome, err := runner.Run(context.Background(), dir, "*_rotmod.dat")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var tiny *galaxy.Result
	for _, res := range outcome.Results {
		if res.GalaxyID == "TINY" {
			tiny = res
		}
	}
	if tiny == nil {
		t.Fatal("gated galaxy missing from results")
	}
	if !tiny.Excluded() {
		t.Error("gated galaxy not marked excluded")
	}
}
