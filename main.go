package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"opportunity-engine/internal/config"
	"opportunity-engine/internal/service"
	"opportunity-engine/pkg/aggregate"
	"opportunity-engine/pkg/logger"
	"opportunity-engine/pkg/pipeline"
	"opportunity-engine/pkg/report"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func main() {
	var (
		configPath = flag.String("config", getEnvOrDefault("OPPORTUNITY_CONFIG", ""), "Configuration file path (env: OPPORTUNITY_CONFIG)")
		token      = flag.String("token", getEnvOrDefault("OPPORTUNITY_TOKEN", ""), "Performance API token (env: OPPORTUNITY_TOKEN)")
		property   = flag.String("property", getEnvOrDefault("OPPORTUNITY_PROPERTY", ""), "Property, e.g. sc-domain:example.it (env: OPPORTUNITY_PROPERTY)")
		country    = flag.String("country", getEnvOrDefault("OPPORTUNITY_COUNTRY", ""), "Country filter (env: OPPORTUNITY_COUNTRY)")
		year       = flag.Int("year", getEnvIntOrDefault("OPPORTUNITY_YEAR", 0), "Target year (env: OPPORTUNITY_YEAR)")
		outputDir  = flag.String("output-dir", getEnvOrDefault("OPPORTUNITY_OUTPUT_DIR", ""), "Report output directory (env: OPPORTUNITY_OUTPUT_DIR)")
		exclude    = flag.String("exclude", "", "Comma-separated queries to leave out of trend analysis")
		skipTrends = flag.Bool("skip-trends", getEnvBoolOrDefault("OPPORTUNITY_SKIP_TRENDS", false), "Skip trend enrichment (env: OPPORTUNITY_SKIP_TRENDS)")
		trendsUser = flag.String("trends-user", getEnvOrDefault("OPPORTUNITY_TRENDS_USERNAME", ""), "Trend API username (env: OPPORTUNITY_TRENDS_USERNAME)")
		trendsPass = flag.String("trends-password", getEnvOrDefault("OPPORTUNITY_TRENDS_PASSWORD", ""), "Trend API password (env: OPPORTUNITY_TRENDS_PASSWORD)")
		debug      = flag.Bool("debug", getEnvBoolOrDefault("DEBUG", false), "Enable debug logging (env: DEBUG)")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	cfg, err := config.NewManager().Load(*configPath)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Logger.Level = "debug"
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}
	if *trendsUser != "" {
		cfg.Trends.Username = *trendsUser
	}
	if *trendsPass != "" {
		cfg.Trends.Password = *trendsPass
	}

	logger.SetLogger(logger.New(cfg.Logger.Logging()))
	log := logger.GetLogger().WithField("component", "main")
	secureLog := logger.NewSecurityLogger(log)

	runs := service.NewRunService(cfg)
	settings := runs.Settings(pipeline.Settings{
		Token:        *token,
		Property:     *property,
		Country:      *country,
		Year:         *year,
		EnableTrends: !*skipTrends,
	})
	if err := settings.Validate(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		fmt.Println("Use -token/-property or OPPORTUNITY_TOKEN/OPPORTUNITY_PROPERTY.")
		fmt.Println("")
		printUsage()
		os.Exit(1)
	}

	secureLog.SafeInfo("Configuration loaded", map[string]interface{}{
		"token":               settings.Token,
		"property":            settings.Property,
		"year":                settings.Year,
		"extraction_endpoint": cfg.Extraction.Endpoint,
		"trends_endpoint":     cfg.Trends.Endpoint,
		"trends_enabled":      settings.EnableTrends,
		"output_dir":          cfg.Report.OutputDir,
		"config_source":       configSource(*configPath),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	progress := logger.NewProgressReporter("pipeline")
	sink := logger.SinkFunc(func(msg string) {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), msg)
	})
	runner := runs.NewRunner(settings, sink, progress.Report)

	startTime := time.Now()
	state, err := runner.Complete(ctx, pipeline.New(settings), excluded(*exclude))
	switch {
	case errors.Is(err, report.ErrEmptyReport):
		log.Warn("No records found, no report generated")
		os.Exit(2)
	case errors.Is(err, context.Canceled):
		log.WithField("step", state.Step.String()).Warn("Run interrupted, no report generated")
		os.Exit(130)
	case err != nil:
		secureLog.SafeError("Run failed", err, map[string]interface{}{
			"step":     state.Step.String(),
			"property": settings.Property,
		})
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"queries":  len(state.Candidates),
		"selected": len(state.Selection),
		"signals":  len(state.Signals),
		"duration": time.Since(startTime).Round(time.Second).String(),
	}).Info("Run completed")

	printSummary(state)
}

// excluded turns the -exclude list into analyze flags; unlisted queries stay selected.
func excluded(list string) map[string]bool {
	analyze := make(map[string]bool)
	for _, q := range strings.Split(list, ",") {
		if q = strings.TrimSpace(q); q != "" {
			analyze[q] = false
		}
	}
	return analyze
}

func configSource(path string) string {
	if path == "" {
		return "env_vars_and_flags"
	}
	return path
}

func printSummary(state pipeline.State) {
	fmt.Printf("\n=== Query Summary ===\n")
	for _, row := range state.ReviewTable(nil) {
		trend := ""
		if sig, ok := state.Signals[row.Query]; ok {
			if sig.NoData {
				trend = " trend: " + aggregate.NotAvailable
			} else {
				trend = fmt.Sprintf(" trend: %s (%.0f)", sig.Direction, sig.LastValue)
			}
		}
		fmt.Printf("%-40s clicks: %-8.0f pos: %-5.1f ctr: %.4f%s\n",
			row.Query, row.TotalClicks, row.AvgPosition, row.AvgCTR, trend)
	}
	fmt.Printf("\nReport: %s\n", state.ReportPath)
}

func printUsage() {
	fmt.Println("Opportunity Engine - yearly search performance report")
	fmt.Println("")
	fmt.Println("USAGE:")
	fmt.Println("    ./opportunity-engine -token <TOKEN> -property <PROPERTY> [OPTIONS]")
	fmt.Println("    ./opportunity-engine  # Uses environment variables")
	fmt.Println("")
	fmt.Println("REQUIRED:")
	fmt.Println("    -token string          Performance API token (env: OPPORTUNITY_TOKEN)")
	fmt.Println("    -property string       Property, sc-domain:example.it or https://example.it/ (env: OPPORTUNITY_PROPERTY)")
	fmt.Println("")
	fmt.Println("OPTIONS:")
	fmt.Println("    -config string         YAML/JSON configuration file (env: OPPORTUNITY_CONFIG)")
	fmt.Println("    -country string        Country filter, default ITA (env: OPPORTUNITY_COUNTRY)")
	fmt.Println("    -year int              Target year (env: OPPORTUNITY_YEAR)")
	fmt.Println("    -output-dir string     Report output directory (env: OPPORTUNITY_OUTPUT_DIR)")
	fmt.Println("    -exclude string        Comma-separated queries to skip in trend analysis")
	fmt.Println("    -skip-trends           Skip trend enrichment (env: OPPORTUNITY_SKIP_TRENDS)")
	fmt.Println("    -trends-user string    Trend API username (env: OPPORTUNITY_TRENDS_USERNAME)")
	fmt.Println("    -trends-password string Trend API password (env: OPPORTUNITY_TRENDS_PASSWORD)")
	fmt.Println("    -debug                 Enable debug logging (env: DEBUG)")
	fmt.Println("    -help                  Show this help message")
	fmt.Println("")
	fmt.Println("EXIT CODES:")
	fmt.Println("    0 report written, 1 failure, 2 no records found, 130 interrupted")
}
