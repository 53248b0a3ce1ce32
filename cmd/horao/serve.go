package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/horao-project/horao/pkg/log"
	"github.com/horao-project/horao/pkg/manager"
	"github.com/horao-project/horao/pkg/storage"
)

var configOverlay string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the replica's peer synchronization loop",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configOverlay, "config", "", "optional non-secret YAML config overlay")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	cfg := manager.LoadConfig(dataDir)
	if configOverlay != "" {
		if err := cfg.OverlayYAML(configOverlay); err != nil {
			return err
		}
	}

	store, err := storage.NewBoltStore(dataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	replica, err := manager.New(cfg, store)
	if err != nil {
		return fmt.Errorf("create replica: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	log.Info("horao replica started")
	for {
		select {
		case <-ctx.Done():
			return replica.PersistClock()
		case now := <-ticker.C:
			if _, err := replica.Synchronize(ctx, now); err != nil {
				log.Logger.Error().Err(err).Msg("synchronize round failed")
			}
		}
	}
}
