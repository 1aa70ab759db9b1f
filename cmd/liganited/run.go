package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bitmark-inc/logger"
	"github.com/spf13/cobra"

	"github.com/liganite/liganite/config"
	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/indexer"
	"github.com/liganite/liganite/node"
	"github.com/liganite/liganite/rpc"
	"github.com/liganite/liganite/storage"
	"github.com/liganite/liganite/vm"

	// Import VM modules to trigger their init() self-registration.
	_ "github.com/liganite/liganite/vm/modules/economy"
	_ "github.com/liganite/liganite/vm/modules/games"
	_ "github.com/liganite/liganite/vm/modules/publish"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the node and its RPC server",
	RunE:  runNode,
}

func runNode(cmd *cobra.Command, _ []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Logging.Directory, 0700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	if err := logger.Initialise(cfg.Logging.LoggerConfiguration()); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Finalise()
	log := logger.New("main")

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	state := storage.NewStateDB(db)

	if _, ok, err := state.Height(); err != nil {
		return fmt.Errorf("read height: %w", err)
	} else if !ok {
		root, err := config.ApplyGenesis(&cfg.Genesis, state)
		if err != nil {
			return err
		}
		log.Infof("genesis applied for chain %s, state root %s", cfg.Genesis.ChainID, root)
	}

	emitter := events.NewEmitter()
	journal := events.NewJournal(cfg.JournalSize)
	journal.Attach(emitter)
	idx := indexer.New(db, emitter)

	exec := vm.NewExecutor(state, emitter, cfg.Genesis.ChainID, core.AccountID(cfg.Genesis.Admin))
	seq, err := node.New(state, exec)
	if err != nil {
		return err
	}
	log.Infof("node %s resumed at height %d", cfg.NodeID, seq.Height())

	server := rpc.NewServer(fmt.Sprintf(":%d", cfg.RPCPort), rpc.NewHandler(seq, idx, journal), secrets.RPCToken)
	if err := server.Start(); err != nil {
		return fmt.Errorf("rpc start: %w", err)
	}
	if secrets.RPCToken != "" {
		log.Info("RPC bearer token authentication enabled")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	if err := server.Stop(); err != nil {
		log.Errorf("rpc stop: %v", err)
	}
	return nil
}

func openDB(cfg *config.Config) (storage.DB, error) {
	switch cfg.Storage {
	case config.StorageBolt:
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "state.bolt"))
	default:
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		return storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	}
}
