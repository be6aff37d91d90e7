package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/api"
	"github.com/slangwatch/slangcrawler/internal/docstore"
	"github.com/slangwatch/slangcrawler/internal/embed"
	"github.com/slangwatch/slangcrawler/internal/search"
)

// newServeCmd creates and configures the 'serve' subcommand.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the similarity search API",
		Long: `Loads the document store into memory and serves GET /search, which embeds
the query term and returns the closest documents by cosine similarity,
alongside /healthz, /readyz, and /metrics.`,

		RunE: runServeCommand,
	}

	cmd.Flags().String("addr", "", "listen address, e.g. :8080 (overrides config port)")

	return cmd
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	rt, err := resolveRuntime(cmd.Context())
	if err != nil {
		return err
	}
	cfg := rt.Config

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if cmd.Flags().Changed("addr") {
		addr, _ = cmd.Flags().GetString("addr")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := docstore.Open(ctx, docstore.Config{
		Provider: cfg.Docstore.Provider,
		Path:     cfg.Docstore.Path,
		DSN:      cfg.Docstore.DSN,
		Table:    cfg.Docstore.Table,
	})
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	docs, err := store.All(ctx)
	store.Close()
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	embedder, err := embed.New(embed.Config{
		Host:      cfg.Embedding.Host,
		Model:     cfg.Embedding.Model,
		Token:     cfg.Embedding.Token,
		Dimension: cfg.Embedding.Dimension,
	}, rt.Logger.Named("embed"))
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}

	searcher := search.New(embedder, rt.Logger.Named("search"))
	searcher.Load(docs)

	apiServer := api.NewServer(searcher, cfg.Server, rt.Logger.Named("api"))
	srv := &http.Server{
		Addr:              addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		rt.Logger.Info("http server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.Logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	rt.Logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	rt.Logger.Info("shutdown complete")
	return nil
}
