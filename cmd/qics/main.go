package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"qics/adapters/excel"
	"qics/adapters/postgres"
	"qics/adapters/rng"
	"qics/app"
	"qics/domain/core"
	"qics/domain/scaling"
	"qics/internal/aggregate"
	"qics/internal/batch"
	"qics/internal/config"
	"qics/internal/report"
	"qics/internal/simkit"
	"qics/internal/sparc"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "qics",
		Short: "QIC-S rotation curve analysis suite",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newGalaxyCmd(),
		newScalingCmd(),
		newSimulateCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var dataDir, pattern, outDir string
	var resamples, workers, maxRemove int
	var seed int64
	var confidence float64
	var save, xlsx bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full batch analysis over a directory of rotation curves",
		Long: `Analyze every rotation curve matching the pattern, classify each
galaxy, fit the scaling law across the sample, and write the aggregate
table plus the markdown report to the output directory.

Example: qics analyze ./data/sparc --out ./out --resamples 10000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				dataDir = args[0]
			}
			if dataDir != "" {
				cfg.Data.Dir = dataDir
			}
			if pattern != "" {
				cfg.Data.Pattern = pattern
			}
			if cmd.Flags().Changed("resamples") {
				cfg.Bootstrap.Resamples = resamples
			}
			if cmd.Flags().Changed("seed") {
				cfg.Bootstrap.Seed = seed
			}
			if cmd.Flags().Changed("confidence") {
				cfg.Bootstrap.Confidence = confidence
			}
			if cmd.Flags().Changed("workers") {
				cfg.Bootstrap.Workers = workers
			}
			if cmd.Flags().Changed("max-remove") {
				cfg.Scaling.MaxRemove = maxRemove
			}

			return runAnalyze(cmd.Context(), cfg, outDir, save, xlsx)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory of rotation curve files (default from QICS_DATA_DIR)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "File glob pattern (default from QICS_DATA_PATTERN)")
	cmd.Flags().StringVar(&outDir, "out", "out", "Output directory for the aggregate table and report")
	cmd.Flags().IntVar(&resamples, "resamples", 10000, "Bootstrap resample count")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "Bootstrap confidence level")
	cmd.Flags().IntVar(&workers, "workers", 4, "Bootstrap worker count")
	cmd.Flags().IntVar(&maxRemove, "max-remove", 5, "Outlier sensitivity removal depth")
	cmd.Flags().BoolVar(&save, "save", false, "Persist results to DATABASE_URL")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Also write an xlsx workbook to the output directory")

	return cmd
}

func runAnalyze(ctx context.Context, cfg *config.Config, outDir string, save, xlsx bool) error {
	analysis := app.NewAnalysisService(cfg)
	scaling := app.NewScalingService(cfg, rng.NewDeterministic())
	runner := batch.NewRunner(cfg, analysis)

	outcome, err := runner.Run(ctx, cfg.Data.Dir, cfg.Data.Pattern)
	if err != nil {
		return err
	}

	study, err := scaling.RunStudy(ctx, aggregate.Points(outcome.Rows))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if err := aggregate.WriteFile(filepath.Join(outDir, "aggregate.csv"), outcome.Rows); err != nil {
		return err
	}

	in := report.Input{Manifest: outcome.Manifest, Results: outcome.Results, Study: study}
	if err := os.WriteFile(filepath.Join(outDir, "report.md"), []byte(report.Render(in)), 0o644); err != nil {
		return err
	}

	if xlsx {
		writer := excel.NewWorkbookWriter()
		if err := writer.Write(filepath.Join(outDir, "run.xlsx"), outcome.Manifest, outcome.Results, study); err != nil {
			return err
		}
	}

	if save {
		if err := persistOutcome(ctx, cfg, outcome, study); err != nil {
			return err
		}
	}

	c := outcome.Manifest.Census
	fmt.Printf("Run %s: %d galaxies (%d ordered, %d chaotic, %d excluded), %d files skipped\n",
		outcome.Manifest.RunID, c.Total, c.Ordered, c.Chaotic, c.Excluded,
		outcome.Manifest.FilesSkipped)
	fmt.Printf("Scaling slope %.4f (R² %.4f), combined slope %.4f\n",
		study.GalaxyFit.Slope, study.GalaxyFit.RSquared, study.CombinedFit.Slope)
	fmt.Printf("Output written to %s\n", outDir)
	return nil
}

func persistOutcome(ctx context.Context, cfg *config.Config, outcome *batch.Outcome, study *scaling.Study) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("--save requires DATABASE_URL")
	}
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := postgres.NewResultRepository(db)
	if err := repo.SaveRun(ctx, outcome.Manifest); err != nil {
		return err
	}
	if err := repo.SaveGalaxyResults(ctx, outcome.Manifest.RunID, outcome.Results); err != nil {
		return err
	}
	return repo.SaveScalingStudy(ctx, outcome.Manifest.RunID, study)
}

func newGalaxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "galaxy [file]",
		Short: "Analyze a single rotation curve file and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			loaded, err := sparc.ParseFile(args[0])
			if err != nil {
				return err
			}
			if loaded.RowsSkipped > 0 {
				fmt.Fprintf(os.Stderr, "dropped %d malformed rows\n", loaded.RowsSkipped)
			}

			result, err := app.NewAnalysisService(cfg).AnalyzeCurve(loaded.Curve)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	return cmd
}

func newScalingCmd() *cobra.Command {
	var resamples, maxRemove int
	var seed int64
	var confidence float64

	cmd := &cobra.Command{
		Use:   "scaling [aggregate-file]",
		Short: "Fit the scaling law over an aggregate table (csv or xlsx)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("resamples") {
				cfg.Bootstrap.Resamples = resamples
			}
			if cmd.Flags().Changed("seed") {
				cfg.Bootstrap.Seed = seed
			}
			if cmd.Flags().Changed("confidence") {
				cfg.Bootstrap.Confidence = confidence
			}
			if cmd.Flags().Changed("max-remove") {
				cfg.Scaling.MaxRemove = maxRemove
			}

			rows, err := loadAggregate(args[0])
			if err != nil {
				return err
			}

			study, err := app.NewScalingService(cfg, rng.NewDeterministic()).
				RunStudy(cmd.Context(), aggregate.Points(rows))
			if err != nil {
				return err
			}
			return printJSON(study)
		},
	}

	cmd.Flags().IntVar(&resamples, "resamples", 10000, "Bootstrap resample count")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "Bootstrap confidence level")
	cmd.Flags().IntVar(&maxRemove, "max-remove", 5, "Outlier sensitivity removal depth")

	return cmd
}

func loadAggregate(path string) ([]aggregate.Row, error) {
	if filepath.Ext(path) == ".xlsx" {
		return excel.NewTableReader(path).Read()
	}
	return aggregate.ReadFile(path)
}

func newSimulateCmd() *cobra.Command {
	var count int
	var seed int64
	var noise float64
	var outDir string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate synthetic rotation curves for pipeline testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			simCfg := simkit.DefaultConfig()
			simCfg.Seed = seed
			if cmd.Flags().Changed("noise") {
				simCfg.NoiseSigmaKms = noise
			}

			gen, err := simkit.NewGenerator(simCfg)
			if err != nil {
				return err
			}
			curves, err := gen.GenerateBatch(count)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for _, curve := range curves {
				path := filepath.Join(outDir, curve.ID.String()+"_rotmod.dat")
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := sparc.Write(f, curve); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
			}

			fmt.Printf("Wrote %d synthetic curves to %s\n", len(curves), outDir)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 10, "Number of galaxies to generate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().Float64Var(&noise, "noise", 2.0, "Gaussian noise sigma on observed velocity (km/s)")
	cmd.Flags().StringVar(&outDir, "out", "simdata", "Output directory")

	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run-id] [workbook.xlsx]",
		Short: "Export a stored run to an xlsx workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			db, err := sqlx.Connect("postgres", cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()
			repo := postgres.NewResultRepository(db)
			runID := core.RunID(args[0])

			manifest, err := repo.GetRun(ctx, runID)
			if err != nil {
				return err
			}
			results, err := repo.ListGalaxyResults(ctx, runID)
			if err != nil {
				return err
			}
			study, _ := repo.GetScalingStudy(ctx, runID)

			if err := excel.NewWorkbookWriter().Write(args[1], manifest, results, study); err != nil {
				return err
			}
			fmt.Printf("Exported run %s to %s\n", runID, args[1])
			return nil
		},
	}
	return cmd
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
