package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"confdash/internal/config"
	"confdash/internal/feed"
	"confdash/internal/filecache"
	appLog "confdash/internal/log"
	"confdash/internal/refresh"
	"confdash/internal/store"
	"confdash/internal/vendor"
	"confdash/internal/web"
)

// flagConfig holds CLI flag values that may override the config file.
type flagConfig struct {
	configPath string
	listen     string
	dataDir    string
	once       bool
}

func main() {
	appLog.Info("confdash starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override config file values if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.dataDir != "" {
		conf.DataDir = flags.dataDir
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("effective config",
		"listen", conf.Listen,
		"data_dir", conf.DataDir,
		"refresh_cron", conf.RefreshCron,
		"conference_feed", conf.Feeds.ConferenceURL,
		"acceptance_feed", conf.Feeds.AcceptanceURL,
		"history_limit", conf.HistoryLimit,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, conf, flags.once); err != nil {
		appLog.Error("confdash failed", err)
		os.Exit(1)
	}

	appLog.Info("confdash exiting")
}

func run(ctx context.Context, conf *config.Config, once bool) error {
	kv, err := store.Open(conf.DataDir)
	if err != nil {
		return err
	}
	defer kv.Close()

	svc := refresh.New(
		feed.NewClient(conf.Feeds.ConferenceURL, conf.Feeds.AcceptanceURL),
		filecache.New(conf.DataDir),
		kv,
		conf.SnapshotTTLs(),
	)

	if once {
		out := svc.Refresh(ctx)
		if !out.Success {
			return errors.New(out.Message)
		}
		appLog.Info("refresh finished", "message", out.Message)
		return nil
	}

	if err := svc.StartCron(ctx, conf.RefreshCron); err != nil {
		return err
	}
	defer svc.StopCron()

	ocr := vendor.NewOCRClient(conf.OCR.Endpoint, conf.OCR.Token)
	rank := vendor.NewRankClient(conf.Rank.Endpoint, conf.Rank.Key)
	api := web.NewServer(conf, svc, kv, ocr, rank)

	httpServer := &http.Server{
		Addr:         conf.Listen,
		Handler:      api.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("HTTP server listening", "listen", "http://"+conf.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Warn("HTTP shutdown was not clean", "error", err.Error())
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/confdash/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.dataDir, "data-dir", "", "Data directory (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one feed refresh cycle and exit")

	flag.Parse()

	return cfg
}
