package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opencatalog/powerbi-connector/pkg/config"
	"github.com/opencatalog/powerbi-connector/pkg/logger"
	"github.com/opencatalog/powerbi-connector/pkg/mapper"
	"github.com/opencatalog/powerbi-connector/pkg/powerbi"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	root := &cobra.Command{
		Use:   "powerbi-connector",
		Short: "PowerBI metadata connector for catalog ingestion",
		Long: `powerbi-connector pulls dashboards, reports, datasets, and lineage from a
PowerBI tenant and maps them into catalog entities. Runs are driven by a YAML
recipe describing credentials, workspace selection, and extraction toggles.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("powerbi-connector v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	var recipeFile, logLevel, outputFile string
	var timeout time.Duration

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a recipe without contacting the PowerBI service",
		Long: `Validate loads the recipe, runs normalization and validation, and reports
either the effective configuration or the single error that rejected it.
No network call is made.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(logLevel); err != nil {
				return err
			}
			cfg, err := config.Load(recipeFile)
			if err != nil {
				return err
			}
			fmt.Printf("recipe is valid\n")
			fmt.Printf("  tenant:                %s\n", cfg.TenantID)
			fmt.Printf("  workspace allow:       %v\n", cfg.WorkspaceIDPattern.Allow)
			fmt.Printf("  workspace deny:        %v\n", cfg.WorkspaceIDPattern.Deny)
			fmt.Printf("  admin apis only:       %v\n", cfg.AdminAPIsOnly)
			fmt.Printf("  scan timeout seconds:  %d\n", cfg.ScanTimeoutSeconds)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&recipeFile, "recipe", "r", "", "Path to the YAML recipe file (required)")
	_ = validateCmd.MarkFlagRequired("recipe")
	validateCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.AddCommand(validateCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one ingestion pass over the configured tenant",
		Long: `Run constructs the configuration from the recipe, discovers workspaces
through the configured pattern, scans them via the admin APIs, and emits the
mapped entities as JSON lines.

Example:
  powerbi-connector run --recipe powerbi.yml --output entities.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(logLevel); err != nil {
				return err
			}
			return runIngestion(recipeFile, outputFile, timeout)
		},
	}
	runCmd.Flags().StringVarP(&recipeFile, "recipe", "r", "", "Path to the YAML recipe file (required)")
	_ = runCmd.MarkFlagRequired("recipe")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write entities to this file instead of stdout")
	runCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "Overall run timeout")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogger(level string) error {
	return logger.Init(logger.Config{
		Level:    level,
		Encoding: "json",
	})
}

func runIngestion(recipeFile, outputFile string, timeout time.Duration) error {
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(recipeFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile) //nolint:gosec // G304: path comes from the operator
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	report := powerbi.NewScanReport()
	client := powerbi.NewClient(ctx, cfg, report)

	workspaces, err := client.DiscoverWorkspaces(ctx)
	if err != nil {
		return err
	}
	if len(workspaces) == 0 {
		logger.Warn("no workspaces matched workspace_id_pattern, nothing to ingest")
		return nil
	}

	ids := make([]string, 0, len(workspaces))
	for _, ws := range workspaces {
		ids = append(ids, ws.ID)
	}

	infos, err := client.Scan(ctx, ids)
	if err != nil {
		return err
	}

	m := mapper.New(cfg, report)
	total := 0
	for _, info := range infos {
		entities := m.MapWorkspace(info)
		if err := mapper.Emit(out, entities); err != nil {
			return err
		}
		total += len(entities)
	}

	logger.Info("ingestion run complete",
		zap.Int("workspaces", report.NumberOfWorkspaces),
		zap.Int("dashboards_scanned", report.DashboardsScanned),
		zap.Int("charts_scanned", report.ChartsScanned),
		zap.Int("entities", total))
	return nil
}
