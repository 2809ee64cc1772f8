package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hatchnet/config"
	"hatchnet/core/events"
	"hatchnet/core/genesis"
	"hatchnet/core/state"
	"hatchnet/native/hatch"
	"hatchnet/native/staking"
	"hatchnet/native/store"
	"hatchnet/observability/logging"
	"hatchnet/storage"
	"hatchnet/storage/trie"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	useMemDB := flag.Bool("memdb", false, "DEV ONLY: run against an in-memory database")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("HATCHNET_ENV"))
	logger := logging.Setup("hatchd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var db storage.Database
	if *useMemDB {
		db = storage.NewMemDB()
	} else {
		disk, err := storage.NewDiskDB(filepath.Join(cfg.DataDir, "state"))
		if err != nil {
			logger.Error("failed to open state database", "error", err)
			os.Exit(1)
		}
		db = disk
	}
	defer db.Close()

	root, err := loadStateRoot(db)
	if err != nil {
		logger.Error("failed to load state root", "error", err)
		os.Exit(1)
	}
	tr, err := trie.NewTrie(db, root)
	if err != nil {
		logger.Error("failed to open state trie", "error", err)
		os.Exit(1)
	}
	manager := state.NewManager(tr)

	emitter, journalClose, err := openJournal(cfg, *useMemDB)
	if err != nil {
		logger.Error("failed to open event journal", "error", err)
		os.Exit(1)
	}
	defer journalClose()

	initialized, err := manager.GenesisInitialized()
	if err != nil {
		logger.Error("failed to read genesis marker", "error", err)
		os.Exit(1)
	}
	if !initialized {
		if err := genesis.Init(manager, cfg.Genesis, time.Now().Unix()); err != nil {
			logger.Error("genesis bootstrap failed", "error", err)
			os.Exit(1)
		}
		if err := commit(db, tr); err != nil {
			logger.Error("failed to commit genesis state", "error", err)
			os.Exit(1)
		}
		logger.Info("genesis state initialized", "owner", cfg.Genesis.Owner)
	}

	hatchEngine := hatch.NewEngine()
	hatchEngine.SetState(manager)
	hatchEngine.SetEmitter(emitter)

	stakingEngine := staking.NewEngine()
	stakingEngine.SetState(manager)
	stakingEngine.SetToken(hatchEngine)
	stakingEngine.SetEmitter(emitter)

	storeEngine := store.NewEngine()
	storeEngine.SetState(manager)
	storeEngine.SetEmitter(emitter)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listener failed", "error", err)
		}
	}()

	logger.Info("hatchd ready",
		"dataDir", cfg.DataDir,
		"metrics", cfg.MetricsAddress,
		"stateRoot", tr.Hash().Hex(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	server.Close()
	if err := commit(db, tr); err != nil {
		logger.Error("failed to commit state on shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("hatchd stopped")
}

var (
	stateRootKey       = []byte("hatchnet/state-root")
	stateGenerationKey = []byte("hatchnet/state-generation")
)

func loadStateRoot(db storage.Database) ([]byte, error) {
	ok, err := db.Has(stateRootKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return db.Get(stateRootKey)
}

func loadGeneration(db storage.Database) (uint64, error) {
	ok, err := db.Has(stateGenerationKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	raw, err := db.Get(stateGenerationKey)
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("corrupt state generation record: %d bytes", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

// commit flushes the trie and advances the persisted generation so each
// commit lands in triedb under a strictly increasing number.
func commit(db storage.Database, tr *trie.Trie) error {
	generation, err := loadGeneration(db)
	if err != nil {
		return err
	}
	generation++
	root, err := tr.Commit(tr.Root(), generation)
	if err != nil {
		return err
	}
	if err := db.Put(stateRootKey, root.Bytes()); err != nil {
		return err
	}
	var encoded [8]byte
	binary.BigEndian.PutUint64(encoded[:], generation)
	return db.Put(stateGenerationKey, encoded[:])
}

func openJournal(cfg *config.Config, memdb bool) (events.Emitter, func(), error) {
	var kv storage.KVStore
	if memdb {
		kv = storage.NewMemKV()
	} else {
		levelKV, err := storage.NewLevelKV(filepath.Join(cfg.DataDir, "events"))
		if err != nil {
			return nil, nil, fmt.Errorf("open event journal: %w", err)
		}
		kv = levelKV
	}
	journal, err := events.NewJournal(kv)
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	return journal, kv.Close, nil
}
