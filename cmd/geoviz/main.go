package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"geoviz-platform/internal/analysis"
	"geoviz-platform/internal/models"
	"geoviz-platform/internal/parser"
)

var (
	flagRain float64
	flagDisp float64
	flagPore float64
	flagJSON bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "geoviz",
		Short: "Analyze geotechnical monitoring CSV files",
		Long: `geoviz summarizes delimited-text sensor data from the command line:
per-column descriptive statistics, pairwise Pearson correlations, and
threshold alerts over rainfall, displacement, and pore pressure readings.`,
		SilenceUsage: true,
	}

	defaults := models.DefaultThresholds()
	rootCmd.PersistentFlags().Float64Var(&flagRain, "rain", defaults.Rain, "rainfall_mm alert threshold")
	rootCmd.PersistentFlags().Float64Var(&flagDisp, "disp", defaults.Disp, "displacement_mm alert threshold")
	rootCmd.PersistentFlags().Float64Var(&flagPore, "pore", defaults.Pore, "pore_pressure_kpa alert threshold")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON instead of text")

	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newCorrelateCmd())
	rootCmd.AddCommand(newAlertsCmd())
	rootCmd.AddCommand(newStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file>",
		Short: "Per-column descriptive statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, columns, err := loadFile(args[0])
			if err != nil {
				return err
			}

			summary := analysis.Describe(records, columns)
			if flagJSON {
				return printJSON(summary)
			}

			names := make([]string, 0, len(summary))
			for name := range summary {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Printf("%-22s %8s %12s %12s %12s %12s\n", "COLUMN", "N", "MEAN", "STD", "MIN", "MAX")
			fmt.Println(strings.Repeat("-", 82))
			for _, name := range names {
				s := summary[name]
				fmt.Printf("%-22s %8d %12.4f %12.4f %12.4f %12.4f\n", name, s.N, s.Mean, s.Std, s.Min, s.Max)
			}
			return nil
		},
	}
}

func newCorrelateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "correlate <file>",
		Short: "Pairwise Pearson correlations over numeric columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, columns, err := loadFile(args[0])
			if err != nil {
				return err
			}

			matrix := analysis.CorrelationMatrix(records, columns)
			if flagJSON {
				return printJSON(matrix)
			}

			if len(matrix) == 0 {
				fmt.Println("No defined correlations (need two numeric columns with paired values).")
				return nil
			}
			for _, c := range matrix {
				fmt.Printf("%-22s ~ %-22s r = %+.4f\n", c.FieldX, c.FieldY, c.R)
			}
			return nil
		},
	}
}

func newAlertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts <file>",
		Short: "Rows where a monitored field exceeds its threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, _, err := loadFile(args[0])
			if err != nil {
				return err
			}

			alerts := analysis.FilterAlerts(records, cliThresholds())
			if flagJSON {
				return printJSON(alerts)
			}

			fmt.Printf("%d of %d rows exceed thresholds (rain > %g, disp > %g, pore > %g)\n",
				len(alerts), len(records), flagRain, flagDisp, flagPore)
			for _, rec := range alerts {
				fmt.Printf("  %s  rain=%s disp=%s pore=%s\n",
					rec[models.FieldTimestamp].Display(),
					rec[models.FieldRainfall].Display(),
					rec[models.FieldDisplacement].Display(),
					rec[models.FieldPorePressure].Display())
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <file>",
		Short: "Compare each monitored field's maximum to its threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, _, err := loadFile(args[0])
			if err != nil {
				return err
			}

			report := analysis.StatusReport(records, cliThresholds())
			if flagJSON {
				return printJSON(report)
			}

			if len(report) == 0 {
				fmt.Println("No monitored fields with numeric data.")
				return nil
			}
			for _, fs := range report {
				verdict := "ok"
				if fs.Critical {
					verdict = "CRITICAL"
				}
				fmt.Printf("%-22s max=%-10.2f threshold=%-10.2f n=%-6d %s\n",
					fs.Field, fs.Max, fs.Threshold, fs.N, verdict)
			}
			return nil
		},
	}
}

func loadFile(path string) ([]models.Record, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	return parser.Parse(file)
}

func cliThresholds() models.ThresholdConfig {
	return models.ThresholdConfig{Rain: flagRain, Disp: flagDisp, Pore: flagPore}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
