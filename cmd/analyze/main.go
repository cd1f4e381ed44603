// Command analyze scores a ledger CSV with the weighted-normalization strategy
// and writes wallet_id,score rows.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"wallet-risk-lab/internal/app"
	"wallet-risk-lab/internal/config"
	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/ingest"
	"wallet-risk-lab/internal/logger"
	"wallet-risk-lab/internal/reporting"
	"wallet-risk-lab/internal/scoring"
)

func main() {
	// Parse flags
	configPath := flag.String("config", os.Getenv("WRL_CONFIG"), "Path to yaml config (optional)")
	input := flag.String("input", filepath.Join("data", "output", "wallet_transactions.csv"), "Ledger CSV produced by fetch")
	output := flag.String("output", filepath.Join("data", "output", "risk_scores.csv"), "Scores CSV to write")
	flag.Parse()

	cfg, err := config.Load(*configPath, *configPath == "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Input.Schema = string(domain.SchemaLedger)
	cfg.Scoring.Mode = scoring.ModeWeighted

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	records, err := ingest.LoadLedger(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v. Run fetch first.\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "Transaction file is empty. No scores to generate.")
		return
	}

	eng, err := app.NewEngine(cfg, log)
	if err != nil {
		log.Fatal("build engine", zap.Error(err))
	}
	res, err := eng.ScoreRecords(records)
	if err != nil {
		log.Fatal("score ledger", zap.Error(err))
	}

	if dir := filepath.Dir(*output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal("create output dir", zap.Error(err))
		}
	}
	if err := os.WriteFile(*output, []byte(reporting.RenderScoresCSV(res.Scores)), 0o644); err != nil {
		log.Fatal("write scores", zap.Error(err))
	}

	log.Info("analysis complete",
		zap.Int("wallets", len(res.Scores)),
		zap.Int("skipped_records", len(res.Skipped)),
		zap.String("output", *output),
	)
}
