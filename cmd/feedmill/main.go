// Package main provides the feedmill command: spreadsheet in, feeds and index out,
// changes committed and pushed best-effort.
package main

import (
	"flag"
	"fmt"
	"os"

	"feedmill/internal/config"
	"feedmill/internal/logger"
	"feedmill/internal/models"
	"feedmill/internal/pipeline"
	"feedmill/internal/publisher"
	"feedmill/internal/report"
)

const defaultConfigPath = "configs/feedmill.yaml"

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configFile := flag.String("config", "", "Path to YAML configuration file")
	outDir := flag.String("out", "", "Output directory (overrides config)")
	dryRun := flag.Bool("dry-run", false, "Report what would change without writing")
	noPublish := flag.Bool("no-publish", false, "Skip the git commit/push step")

	flag.Parse()

	// Load Configuration
	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	// One optional positional argument: the spreadsheet path.
	sourcePath := cfg.Input.Path
	if flag.NArg() > 0 {
		sourcePath = flag.Arg(0)
	}

	// Initialize Logger
	log := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	log.Info("🚀 Starting feedmill run")
	log.Info(fmt.Sprintf("📍 Source: %s", sourcePath))
	log.Info(fmt.Sprintf("🎯 Output: %s", cfg.Output.Dir))

	if *dryRun {
		log.Info("👀 Dry-run mode (no changes will be written)")
	}

	// 2. Core: extract → synthesize → gate
	// ------------------------------------
	p := pipeline.New(cfg, log)

	result, err := p.Run(sourcePath, *dryRun)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Run failed: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Core complete: %s", result.Describe()))

	fmt.Print(report.Summary(result.Set, result.Statuses))

	// 3. Best-effort publish
	// ----------------------
	// Push failures and a clean worktree both exit 0; only the core
	// conversion can fail the run.
	if *dryRun || *noPublish || !cfg.Publish.Enabled {
		return
	}

	gp := publisher.NewGitPublisher(&cfg.Publish, log)

	outcome, err := gp.Publish(cfg.Output.Dir, producedFiles(result))
	switch outcome {
	case models.PublishClean:
		log.Info("✅ Nothing to commit, working tree clean")
	case models.PublishPushed:
		log.Info(fmt.Sprintf("✅ Pushed to %s/%s", cfg.Publish.Remote, cfg.Publish.Branch))
	default:
		log.Warn(fmt.Sprintf("⚠️  Publish failed (run still succeeded): %v", err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}

	// Try the default location; a missing default file just means defaults.
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.LoadConfig(defaultConfigPath)
	}

	return config.Default(), nil
}

func producedFiles(result *pipeline.Result) []string {
	names := make([]string, 0, len(result.Statuses))
	for name := range result.Statuses {
		names = append(names, name)
	}

	return names
}
