package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"ubichain/config"
	"ubichain/core"
	"ubichain/core/genesis"
	"ubichain/crypto"
	"ubichain/indexer"
	"ubichain/observability/logging"
	telemetry "ubichain/observability/otel"
	"ubichain/rpc"
	"ubichain/storage"
)

const genesisPathEnv = "UBI_GENESIS"

type envLookupFunc func(string) (string, bool)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis JSON file (overrides UBI_GENESIS and config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := strings.TrimSpace(os.Getenv("UBI_ENV"))
	logger := logging.Setup("ubid", env, logging.Options{
		Level: logging.ParseLevel(cfg.LogLevel),
		File:  cfg.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *genesisFlag, env, logger); err != nil {
		logger.Error("ubid stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("ubid stopped")
}

func run(ctx context.Context, cfg *config.Config, genesisFlag, env string, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Init(ctx, "ubid", env, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flush traces", slog.Any("error", err))
		}
	}()

	spec, err := loadGenesis(resolveGenesisPath(genesisFlag, cfg.GenesisFile, os.LookupEnv))
	if err != nil {
		return err
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	node, err := core.NewNode(db, spec, logger)
	if err != nil {
		return fmt.Errorf("start node: %w", err)
	}

	var claims rpc.ClaimLister
	if dsn := strings.TrimSpace(cfg.IndexerDSN); dsn != "" {
		idx, err := indexer.Open(dsn, logger)
		if err != nil {
			return fmt.Errorf("open indexer: %w", err)
		}
		defer func() {
			if err := idx.Close(); err != nil {
				logger.Warn("close indexer", slog.Any("error", err))
			}
		}()
		node.SetEventSink(idx)
		claims = idx
	}

	server, err := rpc.NewServer(node, claims, rpc.ServerConfig{
		Auth:      cfg.Auth,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	accounts := node.Accounts()
	logger.Info("ubid starting",
		slog.String("network", cfg.NetworkName),
		slog.String("rpc", cfg.RPCAddress),
		slog.Uint64("height", node.Height()),
		slog.String("owner", crypto.FormatAddress(accounts.Owner)),
		slog.Duration("blockInterval", cfg.BlockInterval))

	blockCtx, cancelBlocks := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		produceBlocks(blockCtx, node, cfg.BlockInterval, logger)
	}()

	serveErr := server.Serve(ctx, cfg.RPCAddress)
	cancelBlocks()
	wg.Wait()

	if _, err := node.SealBlock(); err != nil {
		logger.Warn("final seal failed", slog.Any("error", err))
	}
	return serveErr
}

// produceBlocks seals the open block every interval until ctx is done.
func produceBlocks(ctx context.Context, node *core.Node, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := node.SealBlock(); err != nil {
				logger.Error("seal block", slog.Any("error", err))
			}
		}
	}
}

func resolveGenesisPath(cliPath, cfgPath string, lookup envLookupFunc) string {
	if trimmed := strings.TrimSpace(cliPath); trimmed != "" {
		return trimmed
	}
	if lookup != nil {
		if value, ok := lookup(genesisPathEnv); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return strings.TrimSpace(cfgPath)
}

// loadGenesis reads path when set. An empty path is only valid for a
// database that already holds a ledger.
func loadGenesis(path string) (*genesis.GenesisSpec, error) {
	if path == "" {
		return nil, nil
	}
	spec, err := genesis.LoadGenesisSpec(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("genesis file %s not found", path)
		}
		return nil, fmt.Errorf("load genesis: %w", err)
	}
	return spec, nil
}
