package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"property-valuation/config"
	"property-valuation/models"
	"property-valuation/pricing"
	"property-valuation/report"
	"property-valuation/server"
	"property-valuation/services"
	"property-valuation/utils"
)

const usage = `Usage: property-valuation <command> [flags]

Commands:
  serve      run the estimate form and JSON API (default)
  estimate   valuate one property from flags
  batch      valuate every row of a submissions CSV
  insights   summarise recorded leads
  profiles   list the embedded pricing profiles
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	if cmd == "profiles" {
		return runProfiles(stdout)
	}
	if cmd == "help" {
		fmt.Fprint(stdout, usage)
		return 0
	}

	cfg := config.Load()
	logger, closeLogger := newLogger(cfg, stderr)
	defer closeLogger()

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, cfg, args, logger)
	case "estimate":
		err = runEstimate(ctx, cfg, args, stdout, logger)
	case "batch":
		err = runBatch(ctx, cfg, args, stdout, logger)
	case "insights":
		err = runInsights(ctx, cfg, args, stdout, logger)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		logger.Error("%s failed: %v", cmd, err)
		return 1
	}
	return 0
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// pricingFlags registers the flags every valuating command shares.
func pricingFlags(fs *flag.FlagSet, cfg *config.Config) (path, profile *string) {
	path = fs.String("config", cfg.PricingConfigPath, "pricing profile JSON file (overrides -profile)")
	profile = fs.String("profile", cfg.PricingProfile, "embedded pricing profile name")
	return path, profile
}

func runProfiles(stdout io.Writer) int {
	for _, name := range pricing.Profiles() {
		marker := " "
		if name == pricing.DefaultProfile {
			marker = "*"
		}
		pc, err := pricing.LoadProfile(name)
		if err != nil {
			fmt.Fprintf(stdout, "%s %-24s (invalid: %v)\n", marker, name, err)
			continue
		}
		fmt.Fprintf(stdout, "%s %-24s %-15s %d areas  %s\n", marker, name, pc.Adjustments.Mode, len(pc.Areas), pc.Title)
	}
	return 0
}

func runServe(ctx context.Context, cfg *config.Config, args []string, logger *utils.Logger) error {
	fs := newFlagSet("serve")
	path, profile := pricingFlags(fs, cfg)
	port := fs.String("port", cfg.HTTPPort, "HTTP listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger.Info("=== %s starting ===", cfg.AppName)

	svc, pc, leads, err := newService(ctx, cfg, *path, *profile, logger)
	if err != nil {
		return err
	}
	defer leads.Close()

	handler := server.NewValuationHandler(svc, server.NewVocabulary(pc), logger)
	srv := server.NewServer(*port, handler, cfg.CORSAllowedOrigins, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func runEstimate(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer, logger *utils.Logger) error {
	fs := newFlagSet("estimate")
	path, profile := pricingFlags(fs, cfg)
	var raw services.RawSubmission
	fs.StringVar(&raw.Name, "name", "", "contact name")
	fs.StringVar(&raw.Phone, "phone", "", "contact phone")
	fs.StringVar(&raw.Area, "area", "", "area (required)")
	fs.StringVar(&raw.PropertyType, "type", "", "property type")
	fs.StringVar(&raw.Size, "size", "", "size in profile units (required)")
	fs.StringVar(&raw.Furnishing, "furnishing", "", "furnishing option")
	fs.StringVar(&raw.View, "view", "", "view option")
	amenities := fs.String("amenities", "", "comma-separated amenity tags")
	fs.StringVar(&raw.Age, "age", "", "age bracket")
	format := fs.String("report", "", "also write a report: pdf, doc or html")
	outDir := fs.String("out", cfg.ReportOutputDir, "report output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	raw.Amenities = splitList(*amenities)

	sub, err := services.NewCleaner(logger).Clean(raw)
	if err != nil {
		return err
	}

	svc, _, leads, err := newService(ctx, cfg, *path, *profile, logger)
	if err != nil {
		return err
	}
	defer leads.Close()

	lead, err := svc.Estimate(sub)
	if err != nil {
		return err
	}
	printLead(stdout, lead, svc.Display())

	if *format == "" {
		return nil
	}
	rendered, err := svc.Report(ctx, lead, *format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	dest := filepath.Join(*outDir, rendered.FileName)
	if err := os.WriteFile(dest, rendered.Data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(stdout, "  Report       : %s\n", dest)
	return nil
}

func runBatch(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer, logger *utils.Logger) error {
	fs := newFlagSet("batch")
	path, profile := pricingFlags(fs, cfg)
	in := fs.String("in", "", "submissions CSV (required)")
	format := fs.String("report", "", "write one report per row: pdf, doc or html")
	outDir := fs.String("out", cfg.ReportOutputDir, "report output directory")
	concurrency := fs.Int("concurrency", cfg.BatchConcurrency, "parallel valuations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	svc, _, leads, err := newService(ctx, cfg, *path, *profile, logger)
	if err != nil {
		return err
	}
	defer leads.Close()

	runner := services.NewBatchRunner(svc, services.BatchConfig{
		Concurrency:  *concurrency,
		RateLimitMs:  cfg.BatchRateLimitMs,
		ReportFormat: *format,
		OutputDir:    *outDir,
	}, logger)

	results, runErr := runner.Run(ctx, f)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(stdout, "  row %-4d FAILED  %v\n", r.Row, r.Err)
			continue
		}
		line := fmt.Sprintf("  row %-4d %-20s %s", r.Row, r.Lead.Request.Area,
			report.FormatAmount(r.Lead.Result.Total, svc.Display().Currency))
		if r.ReportPath != "" {
			line += "  → " + r.ReportPath
		}
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintf(stdout, "\n  Done. %d valuated, %d failed\n", len(results)-failed, failed)

	if runErr != nil && failed == len(results) {
		return runErr
	}
	return nil
}

func runInsights(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer, logger *utils.Logger) error {
	fs := newFlagSet("insights")
	path, profile := pricingFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	pc, err := pricing.Load(*path, *profile)
	if err != nil {
		return err
	}
	leads, err := openLeadSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer leads.Close()

	recorded, err := leads.FetchAll()
	if err != nil {
		return fmt.Errorf("fetch leads: %w", err)
	}

	insights := services.NewInsightService(logger)
	insights.Print(stdout, insights.Generate(recorded), pc.Currency)
	return nil
}

func printLead(w io.Writer, lead *models.Lead, display models.Display) {
	cur := display.Currency
	title := cases.Title(language.English)
	fmt.Fprintf(w, "\n  Area         : %s\n", lead.Request.Area)
	if lead.Request.PropertyType != "" {
		fmt.Fprintf(w, "  Type         : %s\n", lead.Request.PropertyType)
	}
	fmt.Fprintf(w, "  Size         : %s\n", report.FormatSize(lead.Request.Size, display))
	for _, a := range lead.Result.Adjustments {
		fmt.Fprintf(w, "  %-13s: %s (%s)\n", title.String(string(a.Category)), a.Name, a.Effect)
	}
	fmt.Fprintf(w, "  Rate         : %s / %s\n", report.FormatAmount(lead.Result.RatePerUnit, cur), display.Unit)
	fmt.Fprintf(w, "  Estimate     : %s\n", report.FormatAmount(lead.Result.Total, cur))
	fmt.Fprintf(w, "  Range        : %s – %s\n", report.FormatAmount(lead.Result.Low, cur), report.FormatAmount(lead.Result.High, cur))
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
