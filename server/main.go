package server

import (
	"context"
	goerrors "errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akramahmed1/quantenergx-gateway/pkg/config"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
)

const version = "1.0.0"

// Main is the gateway entry point: parse flags, load configuration, wire
// services and run until a shutdown signal arrives.
func Main() {
	configPath := flag.String("config", "", "Config file path (optional)")
	host := flag.String("host", "", "Listen host override")
	port := flag.Int("port", 0, "Listen port override")
	brokerURL := flag.String("broker-url", "", "AMQP broker URL override (enables the broker)")
	demoMode := flag.Bool("demo", false, "Enable the synthetic demo source")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	logger.Init(logger.LogLevel(*logLevel), *logFormat)
	log := logger.Get()

	log.InfoWith("gateway starting", "version", version)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.ErrorWithErr("failed to load configuration", err)
		return
	}

	// Command-line flags win over file and environment settings
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *brokerURL != "" {
		cfg.Broker.Enabled = true
		cfg.Broker.URL = *brokerURL
	}
	if *demoMode {
		cfg.Demo.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		log.ErrorWithErr("invalid configuration", err)
		return
	}

	log.InfoWith("configuration loaded",
		"address", cfg.Server.Address(),
		"broker", cfg.Broker.Enabled,
		"demo", cfg.Demo.Enabled)

	gin.SetMode(gin.ReleaseMode)

	services, err := NewServices(cfg)
	if err != nil {
		log.ErrorWithErr("failed to initialize services", err)
		return
	}

	srv := NewServer(services)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start consuming broker topics; a no-op without a broker client
	if err := services.Bridge.Start(ctx); err != nil {
		log.ErrorWithErr("failed to start broker bridge", err)
		return
	}

	if services.Demo != nil {
		services.Demo.Start(ctx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	errorChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
			errorChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.InfoWith("received signal", "signal", sig.String())
	case err := <-errorChan:
		log.ErrorWithErr("server error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithErr("error during shutdown", err)
	}
	log.InfoWith("gateway stopped")
}
