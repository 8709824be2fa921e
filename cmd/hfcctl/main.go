package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/icekubz/HFC-Dynamic-Protocol/internal/app"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/config"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/logger"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")

	// Commands
	runBatchFlag := flag.Bool("run-batch", false, "Run the commission batch for --period")
	reportFlag := flag.Bool("report", false, "Print the master earnings report")
	resetFlag := flag.Bool("reset", false, "Delete all business data except the root identity")

	// Options
	periodFlag := flag.String("period", "", "Batch period as YYYY-MM (empty = previous month)")
	policyFlag := flag.String("policy", "", "Commission policy override: pool, binary or flat (or set COMMISSION_POLICY env var)")
	dryRunFlag := flag.Bool("dry-run", false, "Dry run mode - show what would be done without actually executing")
	yesFlag := flag.Bool("yes", false, "Skip confirmation prompt (use with caution)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *verboseFlag {
		cfg.Verbose = true
	}
	if *policyFlag != "" {
		cfg.Commission.Policy = *policyFlag
	}
	log := logger.New(cfg.Verbose)

	if !*runBatchFlag && !*reportFlag && !*resetFlag {
		flag.Usage()
		return fmt.Errorf("one of --run-batch, --report or --reset is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if *runBatchFlag {
		period := *periodFlag
		if period == "" {
			period = service.PreviousPeriod(a.Clock.Now())
		}
		res, err := a.Batch.RunPeriodBatch(ctx, period)
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		return nil
	}

	if *reportFlag {
		rows, err := a.Reports.MasterReport(ctx)
		if err != nil {
			return err
		}
		return printReport(os.Stdout, rows)
	}

	return resetSystem(ctx, a.Reset, os.Stdin, os.Stdout, *dryRunFlag, *yesFlag)
}
