package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hubenschmidt/go-vecstore"
	"github.com/hubenschmidt/go-vecstore/config"
	"github.com/hubenschmidt/go-vecstore/embed"
	"github.com/hubenschmidt/go-vecstore/index"
	"github.com/hubenschmidt/go-vecstore/monitor"
	"github.com/hubenschmidt/go-vecstore/rerank"
	"github.com/hubenschmidt/go-vecstore/server"
	"github.com/hubenschmidt/go-vecstore/tools"
)

var (
	cfgFile       string
	storeDir      string
	embedProvider string
	embedModel    string
	catalogDSN    string
	addr          string
	topK          int
)

var rootCmd = &cobra.Command{
	Use:   "vecstore",
	Short: "Local persistent similarity-search store for text documents",
	Long: `vecstore chunks documents into overlapping word windows, embeds each
chunk, and answers nearest-neighbor queries over an exact flat index
persisted to disk.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := buildStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		srv, err := server.New(server.Config{Store: store})
		if err != nil {
			return err
		}

		log.Printf("Starting vecstore server on %s", cfg.Server.Addr)
		return http.ListenAndServe(cfg.Server.Addr, srv.Handler())
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>|-",
	Short: "Ingest a document from a file or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var (
			document []byte
			source   string
		)
		if args[0] == "-" {
			document, err = io.ReadAll(os.Stdin)
			source = "stdin"
		} else {
			document, err = os.ReadFile(args[0])
			source = args[0]
		}
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		store, err := buildStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		out, err := tools.NewIngestDocumentTool(store).Execute(cmd.Context(), mustJSON(map[string]any{
			"document": string(document),
			"source":   source,
		}))
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Query the store for similar chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := buildStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		k := topK
		if k <= 0 {
			k = cfg.Store.DefaultTopK
		}
		out, err := tools.NewQueryRAGStoreTool(store).Execute(cmd.Context(), mustJSON(map[string]any{
			"query": strings.Join(args, " "),
			"top_k": k,
		}))
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents from the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := buildStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		cat := store.Catalog()
		if cat == nil {
			return fmt.Errorf("no catalog configured; set catalog.dsn or VECSTORE_CATALOG_DSN")
		}

		out, err := tools.NewListDocumentsTool(cat).Execute(cmd.Context(), nil)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vecstore %s\n", vecstore.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "directory holding the index and metadata files")
	rootCmd.PersistentFlags().StringVar(&embedProvider, "embed-provider", "", "embedding provider: hash, ollama, or openai")
	rootCmd.PersistentFlags().StringVar(&embedModel, "embed-model", "", "embedding model name")
	rootCmd.PersistentFlags().StringVar(&catalogDSN, "catalog-dsn", "", "catalog DSN (sqlite path or postgres URL)")

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address")
	queryCmd.Flags().IntVar(&topK, "top-k", 0, "number of results to return")

	rootCmd.AddCommand(serveCmd, ingestCmd, queryCmd, listCmd, versionCmd)
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.LoadFile(cfgFile)
		if err != nil {
			return cfg, err
		}
	}
	cfg = config.FromEnv(cfg)

	// Flags win over file and environment.
	if storeDir != "" {
		cfg.Store.Dir = storeDir
	}
	if embedProvider != "" {
		cfg.Embedder.Provider = embedProvider
	}
	if embedModel != "" {
		cfg.Embedder.Model = embedModel
	}
	if catalogDSN != "" {
		cfg.Catalog.DSN = catalogDSN
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	return cfg, cfg.Validate()
}

func buildStore(ctx context.Context, cfg config.Config) (*vecstore.Store, error) {
	embedder, err := buildEmbedder(ctx, cfg.Embedder)
	if err != nil {
		return nil, err
	}
	log.Printf("[init] Embedding model: %s (%d dimensions)", embedder.Name(), embedder.Dimension())

	metric, ok := index.ParseMetric(cfg.Store.Metric)
	if !ok {
		return nil, fmt.Errorf("unknown metric %q", cfg.Store.Metric)
	}

	b := vecstore.NewBuilder().
		Paths(cfg.Store.ResolvedIndexPath(), cfg.Store.ResolvedMetadataPath()).
		ChunkWindow(cfg.Store.ChunkSize, cfg.Store.ChunkOverlap).
		TopK(cfg.Store.DefaultTopK).
		Metric(metric).
		Embedder(embedder).
		Metrics(monitor.NewInMemory())

	if cfg.Catalog.DSN != "" {
		b = b.CatalogDSN(cfg.Catalog.DSN)
	}
	if cfg.Rerank.Enabled {
		b = b.Rerank(rerank.NewLexical())
	}

	store, err := b.Build()
	if err != nil {
		return nil, err
	}
	log.Printf("[init] Vector store ready (%d chunks, dimension %d)", store.Len(), store.Dim())
	return store, nil
}

func buildEmbedder(ctx context.Context, cfg config.EmbedderConfig) (embed.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderHash:
		return embed.NewHash(cfg.Dimension), nil
	case config.ProviderOllama:
		return embed.NewOllama(ctx, embed.ClientConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case config.ProviderOpenAI:
		return embed.NewOpenAI(ctx, embed.ClientConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey(),
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}
}

func mustJSON(v map[string]any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func main() {
	log.SetFlags(log.LstdFlags)
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
