// Command score reads a transaction file, scores every wallet and prints the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"wallet-risk-lab/internal/app"
	"wallet-risk-lab/internal/config"
	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/ingest"
	"wallet-risk-lab/internal/logger"
	"wallet-risk-lab/internal/normalization"
	"wallet-risk-lab/internal/observability"
	"wallet-risk-lab/internal/reporting"
)

func main() {
	// Parse flags
	configPath := flag.String("config", os.Getenv("WRL_CONFIG"), "Path to yaml config (optional)")
	input := flag.String("input", "data/user-wallet-transactions.json", "Transaction file to score")
	schema := flag.String("schema", "", "Input schema: action_log or ledger (overrides config)")
	mode := flag.String("mode", "", "Scoring mode: hybrid, rule, probability or weighted (overrides config)")
	seed := flag.Int64("seed", 0, "Classifier seed (overrides config when non-zero)")
	workers := flag.Int("workers", 0, "Feature extraction workers (overrides config when non-zero)")
	format := flag.String("format", "list", "Output format: list, csv or json")
	output := flag.String("output", "", "Output file (default stdout)")
	reportPath := flag.String("report", "", "Write a markdown run summary to this path")
	persist := flag.Bool("persist", false, "Store the run in the configured score stores")
	flag.Parse()

	cfg, err := config.Load(*configPath, *configPath == "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *schema != "" {
		cfg.Input.Schema = *schema
	}
	if *mode != "" {
		cfg.Scoring.Mode = *mode
	}
	if *seed != 0 {
		cfg.Scoring.Seed = *seed
	}
	if *workers > 0 {
		cfg.Scoring.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	records, err := ingest.Load(domain.Schema(cfg.Input.Schema), *input)
	if err != nil {
		if errors.Is(err, ingest.ErrSourceNotFound) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		}
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "Input is empty. No scores to generate.")
		return
	}

	ctx := context.Background()
	run, scores, err := score(ctx, cfg, records, *persist, log)
	if err != nil {
		log.Error("scoring failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}

	out := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := render(out, *format, scores); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	if *reportPath != "" {
		md := reporting.RenderMarkdown(reporting.Build(time.Now().UTC(), run, scores))
		if err := os.WriteFile(*reportPath, []byte(md), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
	}
}

// score runs the engine directly, or through the orchestrator when persisting.
func score(ctx context.Context, cfg config.Config, records []normalization.RawRecord, persist bool, log *zap.Logger) (*domain.ScoreRun, []domain.WalletScore, error) {
	if !persist {
		eng, err := app.NewEngine(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		res, err := eng.ScoreRecords(records)
		if err != nil {
			return nil, nil, err
		}
		run := &domain.ScoreRun{
			RunID:          res.RunID,
			Strategy:       res.Strategy,
			SelectReason:   res.Reason,
			WalletCount:    len(res.Scores),
			SkippedRecords: len(res.Skipped),
		}
		return run, res.Scores, nil
	}

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	defer stores.Close()

	orch, err := app.NewOrchestrator(cfg, stores, observability.DefaultMetrics, log)
	if err != nil {
		return nil, nil, err
	}
	res, err := orch.ScoreRecords(ctx, records)
	if err != nil {
		return nil, nil, err
	}
	for _, msg := range res.Errors {
		log.Warn("run completed with error", zap.String("error", msg))
	}
	return res.Run, res.Scores, nil
}

func render(w io.Writer, format string, scores []domain.WalletScore) error {
	switch format {
	case "csv":
		_, err := io.WriteString(w, reporting.RenderScoresCSV(scores))
		return err
	case "json":
		m := make(map[string]int, len(scores))
		for _, s := range scores {
			m[s.WalletID] = s.Score
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case "list", "":
		if _, err := io.WriteString(w, "\n--- Wallet Credit Scores ---\n"); err != nil {
			return err
		}
		if _, err := io.WriteString(w, reporting.RenderScoreList(scores)); err != nil {
			return err
		}
		_, err := io.WriteString(w, "----------------------------\n")
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
