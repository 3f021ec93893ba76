package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/guireq/libreria-java-books/instrumentation"
	"github.com/guireq/libreria-java-books/internal/config"
	"github.com/guireq/libreria-java-books/internal/logging"
	"github.com/guireq/libreria-java-books/server"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file")
	envFile := flag.String("env-file", "", "optional .env file")
	flag.Parse()

	if err := run(*configFile, *envFile); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run(configFile, envFile string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("stack", string(debug.Stack())).Msgf("Recovered from panic: %v", r)
			returnError = errors.New("panic recovered")
		}
	}()

	var dotenv []string
	if envFile != "" {
		dotenv = append(dotenv, envFile)
	}
	c, err := config.Load(configFile, dotenv...)
	if err != nil {
		return err
	}
	logging.Setup(c.GetLogLevel(), c.GetEnv() == "DEV")
	displayAppname(c.GetAppName())

	provider := sdkmetric.NewMeterProvider()
	otel.SetMeterProvider(provider)
	defer provider.Shutdown(context.Background())

	metrics, err := instrumentation.New(provider)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.GetUpstreamTimeout())
	handler, err := server.New(ctx, c, server.WithMetrics(metrics))
	cancel()
	if err != nil {
		return err
	}
	defer handler.Close()

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
