package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matthewbaird/djinn/internal/eventbus"
	"github.com/matthewbaird/djinn/internal/ratelimit"
	"github.com/matthewbaird/djinn/internal/server"
	"github.com/matthewbaird/djinn/internal/wire"
)

const (
	// maxSweepInterval bounds how late an expired poll is closed.
	maxSweepInterval = 30 * time.Second

	eventBufferSize = 256
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	Long: `Serve the filter pipeline over HTTP and websockets.

Routes:
  POST /v1/fetch              draw movies for a statement
  POST /v1/polls              open a poll
  GET  /v1/polls/{id}         poll state
  POST /v1/polls/{id}/votes   cast a vote
  POST /v1/polls/{id}/close   close a poll
  GET  /v1/complete           statement completions
  GET  /v1/ws                 chat over websocket`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "port to listen on")
	serveCmd.Flags().String("source", "", "corpus source: sqlite, parquet or memory")
	serveCmd.Flags().String("parquet", "", "parquet snapshot for the parquet and memory sources")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("corpus.source", serveCmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("corpus.parquet", serveCmd.Flags().Lookup("parquet"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.Log.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, closeCorpus, err := openCorpus(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCorpus()

	bus := eventbus.New(eventBufferSize, logger)
	svc := newService(cfg, c, logger, bus)
	limiter := ratelimit.New(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	ws := wire.NewHandler(wire.NewManager(), svc, limiter, logger)

	bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	bus.Subscribe("websocket", ws)
	bus.Start(ctx)
	defer bus.Stop()

	logger.Info("starting djinn", "source", cfg.Corpus.Source, "port", cfg.Server.Port)
	err = server.Run(ctx, server.Config{
		Port:          cfg.Server.Port,
		Service:       svc,
		Logger:        logger,
		Limiter:       limiter,
		WebSocket:     ws,
		SweepInterval: min(cfg.Poll.Duration, maxSweepInterval),
	})
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
