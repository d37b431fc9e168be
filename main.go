package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/askrelay/chatgpt-ask-service/pkg/api/handler"
	"github.com/askrelay/chatgpt-ask-service/pkg/api/middleware"
	"github.com/askrelay/chatgpt-ask-service/pkg/logger"
	"github.com/askrelay/chatgpt-ask-service/pkg/openai"
	"github.com/askrelay/chatgpt-ask-service/pkg/workers"
)

//go:embed web/index.html
var homePage []byte

type Config struct {
	OpenAIToken          string        `env:"OPEN_AI_TOKEN,required"`
	Port                 int           `env:"PORT" envDefault:"3000"`
	OpenAIRequestTimeout time.Duration `env:"OPEN_AI_REQUEST_TIMEOUT" envDefault:"5m"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	workerGroup, err := setupWorkers()
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

func setupWorkers() (workers.Group, error) {
	_ = godotenv.Load()

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	openAIClient, err := openai.NewClient(cfg.OpenAIToken, cfg.OpenAIRequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("creating open ai client: %w", err)
	}

	homeHandler := handler.NewHome(homePage)
	askHandler := handler.NewAsk(openAIClient)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", homeHandler.ServePage)
	mux.HandleFunc("GET /healthz", handler.NewHealth().Check)
	mux.HandleFunc("POST /ask", askHandler.StreamAnswer)

	var root http.Handler = mux
	root = middleware.Recover(root)
	root = middleware.RequestID(root)

	var workerGroup workers.Group

	worker, err := workers.NewAPIServer(fmt.Sprintf(":%d", cfg.Port), root, cfg.ShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("creating api server: %w", err)
	}
	workerGroup = append(workerGroup, worker)

	return workerGroup, nil
}
