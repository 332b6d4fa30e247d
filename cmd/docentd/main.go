package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"docent/internal/assets"
	"docent/internal/capture"
	"docent/internal/config"
	"docent/internal/daemon"
	"docent/internal/ipc"
	"docent/internal/logging"
	"docent/internal/runtime"
	"docent/internal/sessions"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := sessions.Open(cfg.Paths.DataDir)
	if err != nil {
		logger.Error("open session store", logging.Error(err))
		return
	}
	defer store.Close()

	assetStore := assets.NewStore(cfg.Paths.AssetsDir, store, logger)
	collab := runtime.Collaborators{
		Camera:   capture.NewDeviceCamera(cfg.Capture.Device),
		Previews: capture.FilePreviews{Dir: cfg.Paths.AssetsDir},
		Uploader: assetStore,
	}

	d, err := daemon.New(cfg, store, collab, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	d.Stop()
}
