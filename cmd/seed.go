package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/corpus"
	"github.com/slangwatch/slangcrawler/internal/docstore"
	"github.com/slangwatch/slangcrawler/internal/embed"
	"github.com/slangwatch/slangcrawler/internal/normalize"
)

// seedSamples are the demo definitions loaded by 'slangcrawler seed'.
var seedSamples = []struct {
	term       string
	year       int
	definition string
	example    string
}{
	{"lit", 2015, "Something that is amazing or exciting.", "This party is lit!"},
	{"on fleek", 2016, "Perfectly styled or groomed.", "Eyebrows on fleek."},
}

// newSeedCmd creates and configures the 'seed' subcommand.
func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a couple of embedded sample documents",
		Long: `Embeds a small set of built-in definitions and appends them to the
document store, so the search API can be exercised without a scrape run.`,

		RunE: runSeedCommand,
	}
}

func runSeedCommand(cmd *cobra.Command, _ []string) error {
	rt, err := resolveRuntime(cmd.Context())
	if err != nil {
		return err
	}
	cfg := rt.Config
	ctx := cmd.Context()

	embedder, err := embed.New(embed.Config{
		Host:      cfg.Embedding.Host,
		Model:     cfg.Embedding.Model,
		Token:     cfg.Embedding.Token,
		Dimension: cfg.Embedding.Dimension,
	}, rt.Logger.Named("embed"))
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}

	texts := make([]string, len(seedSamples))
	for i, s := range seedSamples {
		texts[i] = normalize.CompositeText(s.term, s.definition, s.example)
	}
	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed samples: %w", err)
	}

	docs := make([]corpus.CleanedDocument, len(seedSamples))
	for i, s := range seedSamples {
		docs[i] = corpus.CleanedDocument{
			Term:      s.term,
			Year:      s.year,
			Examples:  []string{texts[i]},
			Embedding: vectors[i],
			Source:    corpus.SourceName,
		}
	}

	store, err := docstore.Open(ctx, docstore.Config{
		Provider: cfg.Docstore.Provider,
		Path:     cfg.Docstore.Path,
		DSN:      cfg.Docstore.DSN,
		Table:    cfg.Docstore.Table,
	})
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer store.Close()

	if pg, ok := store.(*docstore.Postgres); ok {
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	if err := store.Add(ctx, docs); err != nil {
		return fmt.Errorf("store samples: %w", err)
	}

	rt.Logger.Info("sample documents stored", zap.Int("count", len(docs)))
	return nil
}
