package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/orderflow-labs/relayer/broadcast"
	"github.com/orderflow-labs/relayer/config"
	"github.com/orderflow-labs/relayer/ethclient"
	"github.com/orderflow-labs/relayer/execution"
	"github.com/orderflow-labs/relayer/httpapi"
	"github.com/orderflow-labs/relayer/logging"
	"github.com/orderflow-labs/relayer/marketplaces"
	"github.com/orderflow-labs/relayer/matching"
	"github.com/orderflow-labs/relayer/metrics"
	"github.com/orderflow-labs/relayer/nonce"
	"github.com/orderflow-labs/relayer/nonce/mongostore"
	"github.com/orderflow-labs/relayer/orderbook"
	"github.com/orderflow-labs/relayer/types"
)

// RunCmd is the single, flat subcommand this binary exposes: load config
// from relayer.toml in ConfigDir and run until signalled. Only the fields
// below are read from the command line.
type RunCmd struct {
	ConfigDir string `long:"config-dir" default:"." description:"directory containing relayer.toml"`
	MongoURL  string `long:"mongo-url" description:"mongodb connection string backing nonce persistence"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cmd RunCmd
	parser := flags.NewParser(&cmd, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(ctx, cmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd RunCmd) error {
	watcher, err := config.NewFromFile(ctx, logging.NewLoggerFromConfig(logging.NewDefaultConfig()), cmd.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := watcher.Get()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logCfg := logging.NewDefaultConfig()
	logCfg.Level = cfg.Logging.Get()
	if cfg.Debug.Get() {
		logCfg.Level = logging.DebugLevel
	}
	if cfg.Mode == config.ModeDev {
		logCfg.Environment = "dev"
	}
	log := logging.NewLoggerFromConfig(logCfg)
	defer log.AtExit()

	signer, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.InitiatorPrivateKey, "0x"))
	if err != nil {
		return fmt.Errorf("parse initiator private key: %w", err)
	}
	account := crypto.PubkeyToAddress(signer.PublicKey)

	chain, err := ethclient.Dial(ctx, cfg.HTTPRPCURL)
	if err != nil {
		return fmt.Errorf("dial chain rpc: %w", err)
	}

	redisClient := redis.NewClient(mustParseRedisURL(cfg.RedisURL))
	defer redisClient.Close()

	store := orderbook.NewStorage(log, redisClient, cfg.ChainID)
	matchingEngine := matching.NewEngine(log, store, cfg.Matching)

	nonceStore, err := newNonceStore(ctx, cmd.MongoURL)
	if err != nil {
		return fmt.Errorf("connect nonce store: %w", err)
	}

	exchange := common.HexToAddress(cfg.MatchExecutorAddress)
	provider := nonce.NewProvider(log, cfg.Nonce, redisClient, nonceStore, chain, cfg.ChainID, account, exchange)
	if err := provider.Run(ctx); err != nil {
		return fmt.Errorf("start nonce provider: %w", err)
	}
	defer func() { _ = provider.Close(context.Background()) }()

	dispatcher := marketplaces.NewDispatcher(marketplaces.DefaultEnablementTable(), marketplaces.NewDefaultRegistry())
	if err := dispatcher.CheckExhaustiveness(); err != nil {
		log.Panic("enablement table is not exhaustive", logging.Error(err))
	}

	reg := prometheus.DefaultRegisterer
	m := metrics.New(reg)

	broadcaster := selectBroadcaster(log, cfg, chain)

	executionEngine := execution.NewEngine(log, cfg.Execution, store, dispatcher,
		map[common.Address]*nonce.Provider{exchange: provider}, chain, broadcaster, m, signer, cfg.ChainID)
	go runExecutionSweep(ctx, log, store, executionEngine)

	pipelines := httpapi.NewPipelines()
	server := httpapi.NewServer(log, httpapi.NewDefaultConfig(), pipelines).
		WithOrderIngestion(store, matchingEngine, dispatcher)

	log.Info("relayer started", logging.Uint64("chainId", cfg.ChainID), logging.String("mode", string(cfg.Mode)))
	return server.Start(ctx)
}

func selectBroadcaster(log *logging.Logger, cfg config.Config, chain *ethclient.Client) broadcast.Broadcaster {
	if cfg.UsesPrivateRelay() {
		return broadcast.NewPrivateRelay(log, chain.RawRPC())
	}
	return broadcast.NewDirect(log, chain)
}

func newNonceStore(ctx context.Context, mongoURL string) (nonce.Store, error) {
	if mongoURL == "" {
		return nil, fmt.Errorf("mongo-url is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, err
	}
	coll := client.Database("relayer").Collection("nonces")
	return mongostore.New(coll), nil
}

func mustParseRedisURL(rawURL string) *redis.Options {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return &redis.Options{Addr: rawURL}
	}
	return opts
}

// runExecutionSweep periodically drains the gas-price-ordered match queue
// into the execution engine. Real deployments likely trigger execution
// per-match as matching proposes them; a fixed-interval sweep is the
// simplest default that keeps both engines exercised end to end.
func runExecutionSweep(ctx context.Context, log *logging.Logger, store *orderbook.Storage, engine *execution.Engine) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := store.MatchesByGasPriceDesc(ctx, 50)
			if err != nil {
				log.Warn("execution sweep: list matches", logging.Error(err))
				continue
			}
			if len(ids) == 0 {
				continue
			}
			matches := make([]*types.Match, 0, len(ids))
			for _, id := range ids {
				m, err := store.GetMatch(ctx, id)
				if err != nil {
					continue
				}
				matches = append(matches, m)
			}
			subs, err := engine.ExecuteMatches(ctx, matches)
			if err != nil {
				log.Warn("execution sweep failed", logging.Error(err))
				continue
			}
			if len(subs) > 0 {
				log.Info("execution sweep submitted matches", logging.Int("count", len(subs)))
			}
		}
	}
}
