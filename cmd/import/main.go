package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"reckon/internal/config"
	"reckon/internal/database"
	"reckon/internal/logger"
	"reckon/internal/models"
	"reckon/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Import error: %v", err)
	}
}

func run() error {
	accountName := flag.String("account", "", "account name (created if missing)")
	accountType := flag.String("type", "bank", "account type: bank, credit, investment, savings, cash, other")
	dryRunReclassify := flag.Bool("reclassify-dry-run", false, "preview reclassification instead of importing")
	reclassify := flag.Bool("reclassify", false, "re-run transfer classification over the full ledger")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("failed to load import rules: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	db := dbManager.DB()
	accountService := services.NewAccountService(db)
	balanceService := services.NewBalanceService(db, accountService)
	importService, err := services.NewImportService(db, rules, accountService, balanceService)
	if err != nil {
		return fmt.Errorf("failed to build import pipeline: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *reclassify || *dryRunReclassify {
		stats, err := importService.Reclassify(ctx, *dryRunReclassify)
		if err != nil {
			return err
		}
		fmt.Printf("scanned=%d transfers_before=%d transfers_after=%d updated=%d\n",
			stats.Scanned, stats.TransfersBefore, stats.TransfersAfter, stats.Updated)
		return nil
	}

	paths := flag.Args()
	if len(paths) == 0 {
		return fmt.Errorf("usage: import -account NAME [-type TYPE] FILE [FILE...]")
	}
	if *accountName == "" {
		return fmt.Errorf("-account is required")
	}
	if !models.ValidAccountType(models.AccountType(*accountType)) {
		return fmt.Errorf("invalid account type: %s", *accountType)
	}

	results, err := importService.ImportFiles(ctx, paths, *accountName, models.AccountType(*accountType))
	for _, result := range results {
		fmt.Printf("%s: state=%s scanned=%d inserted=%d duplicates=%d errors=%d transfers=%d",
			result.File, result.State,
			result.Stats.RowsScanned, result.Stats.Inserted, result.Stats.Duplicates,
			result.Stats.ErrorRows, result.Stats.TransfersDetected)
		if result.Error != "" {
			fmt.Printf(" error=%q", result.Error)
		}
		fmt.Println()
	}
	return err
}
