package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/phsym/console-slog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opensensing/lteshield/shield"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port the shield is connected to")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("log-format", "json", "Log format (json, console)")
	flag.String("carrier", "auto", "Network operator profile, by name or numeric code")
	flag.String("apn", "", "Access point name of the packet data context")
	flag.String("pdp-type", "IP", "Packet data protocol of the context (IP, IPV4V6, IPV6, NONIP)")
	flag.Bool("verbose", false, "Log every byte exchanged with the module (implies debug logging)")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configPath), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	if config.Verbose {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if config.LogFormat == "console" {
		handler = console.NewHandler(os.Stderr, &console.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)

	network, err := config.network()
	if err != nil {
		logger.Error("Failed to resolve network configuration", "error", err)
		os.Exit(1)
	}

	shieldConfig, err := shield.NewConfigBuilder().
		WithDialer(&shield.SerialDialer{
			Port:     config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		WithNetwork(network).
		WithVerbose(config.Verbose).
		WithLogger(logger.With("component", "shield")).
		Build()
	if err != nil {
		logger.Error("Failed to create shield config", "error", err)
		os.Exit(1)
	}

	dev, err := shield.New(shieldConfig)
	if err != nil {
		logger.Error("Failed to open the shield", "error", err)
		os.Exit(1)
	}

	logger.Info("Bringing up the module", "port", config.SerialPort, "carrier", network.MNO)
	if err := dev.Start(context.Background()); err != nil {
		logger.Error("Module bring-up failed", "error", err, "state", dev.State())
		os.Exit(1)
	}
	logger.Info("Module registered with the network")

	// One module transaction at a time, shared between the status handler
	// and the metrics collector.
	var mu sync.Mutex

	prometheus.MustRegister(NewShieldCollector(dev, &mu, logger.With("component", "metrics")))

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger: logger.With("component", "server"),
			Shield: dev,
			Mu:     &mu,
		},
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	logger.Info("Closing shield connection")
	if err := dev.Close(); err != nil {
		logger.Error("Failed to close the shield", "error", err)
		os.Exit(1)
	}
}
