package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"npdstudio/domain/core"
	"npdstudio/domain/scenario"
	"npdstudio/internal"
	"npdstudio/internal/charts"
	"npdstudio/internal/config"
	"npdstudio/internal/forecast"
	"npdstudio/internal/ingestion"
	"npdstudio/internal/mappings"
	"npdstudio/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "npdstudio-cli",
		Short: "NPD Studio CLI for checking distribution files and running forecasts",
	}

	rootCmd.AddCommand(
		newParseCmd(),
		newSectionsCmd(),
		newPredictCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newParseCmd() *cobra.Command {
	var batchSize int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse [distribution-file]",
		Short: "Parse a distribution CSV and print what the dashboard would load",
		Long: `Parse a distribution file exactly as an upload does: the first line is a header,
every other line must have a client id followed by 12 values. Other lines are skipped.

Example: npdstudio-cli parse clients.csv --batch-size 500`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args[0], batchSize, asJSON)
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", ingestion.DefaultBatchSize, "Records per parse batch")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report and profile as JSON")
	return cmd
}

func runParse(path string, batchSize int, asJSON bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	parser := ingestion.NewParser(batchSize)
	dataset, rep := parser.Parse(string(content))
	profile := charts.DistributionProfile(dataset)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"report":  rep,
			"total":   charts.DatasetTotal(dataset),
			"profile": profile,
		})
	}

	fmt.Printf("File: %s\n", filepath.Base(path))
	fmt.Printf("Rows: %d  Accepted: %d  Skipped: %d  Non-numeric values: %d  Batches: %d\n",
		rep.Rows, rep.Accepted, rep.Skipped, rep.NaNFields, rep.Batches)
	fmt.Printf("Total distribution: %.2f\n\n", charts.DatasetTotal(dataset))

	fmt.Printf("%-8s %6s %12s %12s %12s %12s\n", "Position", "Count", "Mean", "Median", "Min", "Max")
	for _, ps := range profile {
		fmt.Printf("%-8d %6d %12.2f %12.2f %12.2f %12.2f\n", ps.Position, ps.Count, ps.Mean, ps.Median, ps.Min, ps.Max)
	}
	return nil
}

func newSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the country and category codes known to the prediction service",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, country := range mappings.Countries() {
				for _, category := range mappings.Categories() {
					section, err := mappings.ConfigSection(country.Code, category.Code)
					if err != nil {
						return err
					}
					fmt.Printf("%-12s %-22s %s\n", section, country.Name, category.Name)
				}
			}
			return nil
		},
	}
}

func newPredictCmd() *cobra.Command {
	var reportPath string
	var chartPath string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "predict [form-file]",
		Short: "Submit a product form (JSON) to the prediction service",
		Long: `Submit one product form and print the retailer shares of the forecast.

The service is taken from PREDICTION_API_URL; set it to "sample" for offline forecasts.
The form file holds the same JSON the dashboard API accepts on /api/forms.

Example: PREDICTION_API_URL=sample npdstudio-cli predict form.json --report out.html --chart shares.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runPredict(ctx, args[0], reportPath, chartPath)
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Write the scenario report (.html or .xlsx)")
	cmd.Flags().StringVar(&chartPath, "chart", "", "Write the retailer share chart (.png)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall deadline")
	return cmd
}

func runPredict(ctx context.Context, formPath, reportPath, chartPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	defer logger.Sync()

	raw, err := os.ReadFile(formPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", formPath, err)
	}
	var form scenario.ProductForm
	if err := json.Unmarshal(raw, &form); err != nil {
		return fmt.Errorf("invalid form file: %w", err)
	}
	if form.ID == "" {
		form.ID = core.NewFormID()
	}

	var predictor forecast.Predictor
	if cfg.Prediction.UseSample() {
		predictor = forecast.NewSampleClient(uint64(time.Now().UnixNano()))
	} else {
		predictor, err = forecast.NewClient(forecast.Config{
			BaseURL: cfg.Prediction.BaseURL,
			Timeout: cfg.Prediction.Timeout,
			Retries: cfg.Prediction.Retries,
		}, logger)
		if err != nil {
			return err
		}
	}

	result, err := predictor.SubmitProduct(ctx, form)
	if err != nil {
		return err
	}
	if !result.OK() {
		return fmt.Errorf("prediction rejected: %s", result.Error)
	}
	form.PredictionData = result.Data.Predictions
	form.SimilarityData = result.Data.Similarity

	fmt.Printf("Scenario: %s\n\n", form.ScenarioName())
	for _, share := range charts.RetailerShares(form.PredictionData) {
		fmt.Printf("%-12s %14.2f %6.1f%%\n", share.Retailer, share.Total, share.Percent)
	}

	if chartPath != "" {
		if err := writeFile(chartPath, func(f *os.File) error {
			return charts.RenderShares(f, form.ScenarioName(), charts.RetailerShares(form.PredictionData))
		}); err != nil {
			return err
		}
		fmt.Printf("\nChart written to %s\n", chartPath)
	}

	if reportPath != "" {
		if err := writeReport(reportPath, form); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", reportPath)
	}
	return nil
}

func writeReport(path string, form scenario.ProductForm) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return writeFile(path, func(f *os.File) error {
			return report.WriteWorkbook(f, form, nil)
		})
	case ".html", ".htm":
		var ctx report.Context
		ctx.Section, _ = mappings.SectionForSelection(form.Country, form.Category)
		return os.WriteFile(path, report.HTML(form, ctx), 0o644)
	default:
		return fmt.Errorf("unsupported report format %q (use .html or .xlsx)", filepath.Ext(path))
	}
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
