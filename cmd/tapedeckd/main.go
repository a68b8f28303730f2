package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"tapedeck/internal/catalog"
	"tapedeck/internal/config"
	"tapedeck/internal/daemon"
	"tapedeck/internal/ipc"
	"tapedeck/internal/logging"
	"tapedeck/internal/profile"
	"tapedeck/internal/recording"
	"tapedeck/internal/transcode"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "tapedeckd.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	registry, err := profile.NewRegistry(cfg.ProfilesPath(), cfg.Profiles.Default, logger)
	if err != nil {
		logger.Error("load profiles", logging.Error(err))
		return
	}

	repo, err := recording.NewRepository(cfg.Scheduler.CardCount, cfg.Scheduler.MaxQueueEntries)
	if err != nil {
		logger.Error("create repository", logging.Error(err))
		return
	}
	cat := catalog.New(cfg.DatabasePath(), registry, logger)

	history, err := transcode.OpenHistory(cfg.HistoryDBPath())
	if err != nil {
		logger.Warn("open transcode history, continuing without it", logging.Error(err))
		history = nil
	} else {
		defer history.Close()
	}

	scheduler, err := transcode.NewScheduler(registry, transcode.Options{
		Workers:   cfg.Transcode.Workers,
		Binary:    cfg.Transcode.EncoderBinary,
		OutputDir: cfg.Paths.OutputDir,
		History:   history,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("create transcode scheduler", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, daemon.Options{
		Repository: repo,
		Registry:   registry,
		Catalog:    cat,
		Scheduler:  scheduler,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}
	defer d.Stop()

	ipcServer, err := ipc.NewServer(ctx, ipc.SocketPath(cfg), d, cancel, logger)
	if err != nil {
		logger.Error("start ipc server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-ctx.Done()
	logger.Info("tapedeckd shutting down")
}
