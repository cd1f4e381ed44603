// Command fetch pulls Compound v2 lending history for a wallet list from the
// subgraph and writes it as a ledger CSV, optionally storing the transactions.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"wallet-risk-lab/internal/app"
	"wallet-risk-lab/internal/config"
	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/ingest"
	"wallet-risk-lab/internal/logger"
	"wallet-risk-lab/internal/normalization"
	"wallet-risk-lab/internal/observability"
	"wallet-risk-lab/internal/storage"
	"wallet-risk-lab/internal/subgraph"
)

func main() {
	// Parse flags
	configPath := flag.String("config", os.Getenv("WRL_CONFIG"), "Path to yaml config (optional)")
	walletsPath := flag.String("wallets", filepath.Join("data", "input", "wallets.txt"), "File with one wallet address per line")
	output := flag.String("output", filepath.Join("data", "output", "wallet_transactions.csv"), "Ledger CSV to write")
	store := flag.Bool("store", false, "Also insert fetched transactions into the transaction store")
	resume := flag.Bool("resume", false, "Skip wallets recorded as fetched and append to the output")
	flag.Parse()

	cfg, err := config.Load(*configPath, *configPath == "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	wallets, err := ingest.LoadWalletList(*walletsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v. Create it and add wallet addresses.\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stores *app.Stores
	if *store || *resume {
		stores, err = app.OpenStores(ctx, cfg, log)
		if err != nil {
			log.Fatal("open stores", zap.Error(err))
		}
		defer stores.Close()
		if !stores.Persistent {
			log.Warn("postgres dsn not set, stored transactions and progress are lost on exit")
		}
	}

	f, writeHeader, err := openOutput(*output, *resume)
	if err != nil {
		log.Fatal("open output", zap.Error(err))
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := ingest.AppendLedgerHeader(cw); err != nil {
			log.Fatal("write header", zap.Error(err))
		}
	}

	client := subgraph.NewHTTPClient(cfg.Subgraph.URL,
		subgraph.WithTimeout(cfg.Subgraph.Timeout),
		subgraph.WithMaxRetries(cfg.Subgraph.MaxRetries),
		subgraph.WithMetrics(observability.DefaultMetrics),
	)
	opts := subgraph.FetcherOptions{
		Source:  client,
		Delay:   cfg.Subgraph.Delay,
		Metrics: observability.DefaultMetrics,
		Logger:  log,
	}
	if *resume {
		opts.Progress = stores.FetchProgress
	}
	fetcher := subgraph.NewFetcher(opts)

	normalizer := normalization.NewNormalizer(domain.SchemaLedger, log)
	sink := func(ctx context.Context, wallet string, rows []ingest.LedgerRow) error {
		if err := ingest.AppendLedger(cw, rows); err != nil {
			return err
		}
		if !*store || len(rows) == 0 {
			return nil
		}
		records := make([]normalization.RawRecord, len(rows))
		for i, r := range rows {
			records[i] = r.RawRecord()
		}
		res := normalizer.NormalizeAll(records)
		if err := stores.Transactions.InsertBulk(ctx, res.Transactions); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				log.Warn("wallet transactions already stored", zap.String("wallet", wallet))
				return nil
			}
			return err
		}
		return nil
	}

	stats, err := fetcher.FetchAll(ctx, wallets, sink)
	if err != nil {
		log.Fatal("fetch aborted", zap.Error(err))
	}

	log.Info("data fetch complete",
		zap.Int("wallets", stats.Requested),
		zap.Int("fetched", stats.Fetched),
		zap.Int("rows", stats.Rows),
		zap.String("output", *output),
	)
}

// openOutput creates the output file, or appends to it when resuming.
// The header is due when the file is new or empty.
func openOutput(path string, appendMode bool) (*os.File, bool, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, err
		}
	}

	if !appendMode {
		f, err := os.Create(path)
		return f, true, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	return f, info.Size() == 0, nil
}
