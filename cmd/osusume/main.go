// Package main is the Osusume CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/osusume/internal/assets"
	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/cli"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/embedding"
	"github.com/hyperjump/osusume/internal/metrics"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/server"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/internal/vector"
	"github.com/hyperjump/osusume/internal/watcher"
	"github.com/hyperjump/osusume/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/osusume/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// OSUSUME_* environment variables are applied last.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	resolved := path
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				resolved = fallback
			}
		}
	}
	cfg, err := config.Load(resolved)
	if err != nil {
		return nil, "", err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, "", err
	}
	return cfg, resolved, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	config.LoadDotEnv()

	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "similar":
		runSimilar()
	case "search":
		runSearch()
	case "build-index":
		runBuildIndex()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("osusume version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config and creates the logger for a subcommand.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		exitf("Failed to load config: %v", err)
	}
	cfg.Debug = cfg.Debug || debugFlag
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		exitf("Failed to create logger: %v", err)
	}
	return cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Service, components.Products, components.Images, cfg, logger)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.ArtifactsOrDefault() {
		watchOpts := []watcher.WatcherOption{}
		if cfg.Debug {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(
			[]string{cfg.Artifacts.IndexPath, cfg.Artifacts.EmbeddingsPath, cfg.Artifacts.ProductsPath},
			func(path string) {
				logger.Warn("artifact changed on disk; still serving the loaded index until restart",
					zap.String("path", path))
				srv.MarkStale()
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			defer watchSvc.Stop()
		}
	}

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops
// at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// queryFlags are shared by the similar and search subcommands.
type queryFlags struct {
	configPath *string
	serverURL  *string
	output     *string
	distances  *bool
}

func newQueryFlags(fs *flag.FlagSet) queryFlags {
	return queryFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path (direct mode)"),
		serverURL:  fs.String("server", defaultServerURL, "server URL (empty = load artifacts directly)"),
		output:     fs.String("output", "text", "output format: text, compact, or json"),
		distances:  fs.Bool("distances", false, "include distances"),
	}
}

func runSimilar() {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	qf := newQueryFlags(fs)
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() != 1 {
		exitf("Usage: osusume similar [flags] <sku>")
	}
	sku := fs.Arg(0)
	format, err := cli.ParseFormat(*qf.output)
	if err != nil {
		exitf("%v", err)
	}

	if *qf.serverURL != "" {
		resp, err := similarViaHTTP(*qf.serverURL, sku, *qf.distances)
		if err != nil {
			exitf("Recommendation failed: %v", err)
		}
		resp.Query = sku
		if err := cli.WriteRecommendations(os.Stdout, resp, nil, format); err != nil {
			exitf("Output failed: %v", err)
		}
		return
	}

	cfg, _, logger := setup(*qf.configPath, false)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	recs, err := components.Service.SimilarNeighbors(context.Background(), sku)
	if err != nil {
		exitf("Recommendation failed: %v", err)
	}
	resp := toResponse(recs, *qf.distances)
	resp.Query = sku
	if err := cli.WriteRecommendations(os.Stdout, resp, components.Products, format); err != nil {
		exitf("Output failed: %v", err)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	qf := newQueryFlags(fs)
	_ = fs.Parse(argsReorder(os.Args[2:]))
	text := buildSearchQuery(fs.Args())
	if text == "" {
		exitf("Usage: osusume search [flags] <text>")
	}
	format, err := cli.ParseFormat(*qf.output)
	if err != nil {
		exitf("%v", err)
	}

	if *qf.serverURL != "" {
		resp, err := searchViaHTTP(*qf.serverURL, text, *qf.distances)
		if err != nil {
			exitf("Search failed: %v", err)
		}
		resp.Query = text
		if err := cli.WriteRecommendations(os.Stdout, resp, nil, format); err != nil {
			exitf("Output failed: %v", err)
		}
		return
	}

	cfg, _, logger := setup(*qf.configPath, false)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	recs, err := components.Service.TextNeighbors(context.Background(), text)
	if err != nil {
		exitf("Search failed: %v", err)
	}
	resp := toResponse(recs, *qf.distances)
	resp.Query = text
	if err := cli.WriteRecommendations(os.Stdout, resp, components.Products, format); err != nil {
		exitf("Output failed: %v", err)
	}
}

func toResponse(recs []recommend.Recommendation, distances bool) *models.RecommendationResponse {
	resp := &models.RecommendationResponse{Indexes: recommend.SKUs(recs)}
	if distances {
		for _, r := range recs {
			resp.Distances = append(resp.Distances, r.Distance)
		}
	}
	return resp
}

func similarViaHTTP(serverURL, sku string, distances bool) (*models.RecommendationResponse, error) {
	target := fmt.Sprintf("%s/api/v1/products/%s/similar?distances=%t", serverURL, url.PathEscape(sku), distances)
	resp, err := http.Get(target)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeRecommendation(resp)
}

func searchViaHTTP(serverURL, text string, distances bool) (*models.RecommendationResponse, error) {
	body, err := json.Marshal(models.TextQuery{Query: text, Distances: distances})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeRecommendation(resp)
}

func decodeRecommendation(resp *http.Response) (*models.RecommendationResponse, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out models.RecommendationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func runBuildIndex() {
	fs := flag.NewFlagSet("build-index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	embeddingsPath := fs.String("embeddings", "", "embedding table (csv, tsv, xlsx or sqlite); default artifacts.embeddings_path")
	outPath := fs.String("out", "", "index artifact to write; default artifacts.index_path")
	metricName := fs.String("metric", "", "distance metric: l2 or ip; default index.metric")
	_ = fs.Parse(os.Args[2:])

	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()

	src := firstNonEmpty(*embeddingsPath, cfg.Artifacts.EmbeddingsPath)
	dst := firstNonEmpty(*outPath, cfg.Artifacts.IndexPath)
	metric, err := vector.ParseMetric(firstNonEmpty(*metricName, cfg.Index.Metric))
	if err != nil {
		exitf("%v", err)
	}

	idx, err := buildIndex(src, dst, metric)
	if err != nil {
		exitf("Build failed: %v", err)
	}
	logger.Info("index built",
		zap.String("path", dst),
		zap.Int("vectors", idx.Size()),
		zap.Int("dimensions", idx.Dimensions()),
		zap.String("build_id", idx.BuildID()))
	fmt.Printf("Built %s index: %d vectors x %d dimensions (%s) -> %s\n",
		idx.Type(), idx.Size(), idx.Dimensions(), idx.Metric(), dst)
}

// buildIndex reads the embedding table at src and writes a flat index to dst.
func buildIndex(src, dst string, metric vector.Metric) (*vector.FlatIndex, error) {
	table, err := catalog.LoadEmbeddingTable(src)
	if err != nil {
		return nil, err
	}
	idx, err := vector.Build(table.Dimensions(), metric, table.Vectors())
	if err != nil {
		return nil, err
	}
	if err := idx.Save(dst); err != nil {
		return nil, err
	}
	return idx, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	productsPath := fs.String("products", "", "product table (csv, tsv or xlsx)")
	embeddingsPath := fs.String("embeddings", "", "embedding table (csv, tsv or xlsx)")
	dbPath := fs.String("db", "", "SQLite catalog to write; default artifacts.catalog_db_path")
	_ = fs.Parse(os.Args[2:])

	if *productsPath == "" && *embeddingsPath == "" {
		exitf("Usage: osusume import [--products file] [--embeddings file] [--db path]")
	}
	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()

	db := firstNonEmpty(*dbPath, cfg.Artifacts.CatalogDBPath)
	products, embeddings, err := importCatalog(context.Background(), db, *productsPath, *embeddingsPath)
	if err != nil {
		exitf("Import failed: %v", err)
	}
	logger.Info("catalog imported", zap.String("db", db), zap.Int("products", products), zap.Int("embeddings", embeddings))
	fmt.Printf("Imported %d product(s) and %d embedding(s) into %s\n", products, embeddings, db)
}

// importCatalog copies tabular files into the SQLite catalog at db.
func importCatalog(ctx context.Context, db, productsPath, embeddingsPath string) (int, int, error) {
	store, err := storage.NewSQLiteStorage(db)
	if err != nil {
		return 0, 0, err
	}
	defer store.Close()

	var nProducts, nEmbeddings int
	if productsPath != "" {
		products, err := catalog.LoadProducts(productsPath)
		if err != nil {
			return 0, 0, err
		}
		if err := store.UpsertProducts(ctx, products.All()); err != nil {
			return 0, 0, err
		}
		nProducts = products.Len()
	}
	if embeddingsPath != "" {
		table, err := catalog.LoadEmbeddingTable(embeddingsPath)
		if err != nil {
			return nProducts, 0, err
		}
		if err := store.ReplaceEmbeddings(ctx, table.Rows()); err != nil {
			return nProducts, 0, err
		}
		nEmbeddings = table.Len()
	}
	return nProducts, nEmbeddings, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// statusIndex mirrors the index section of GET /api/v1/status.
type statusIndex struct {
	Type       string `json:"type"`
	Size       int    `json:"size"`
	Dimensions int    `json:"dimensions"`
	Metric     string `json:"metric"`
	BuildID    string `json:"build_id,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Status         string      `json:"status"`
	Stale          bool        `json:"stale"`
	Index          statusIndex `json:"index"`
	Embeddings     int         `json:"embeddings"`
	Products       int         `json:"products"`
	OutputCount    int         `json:"output_count"`
	DiskUsageBytes *int64      `json:"disk_usage_bytes,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load artifacts directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			exitf("Status failed: %v", err)
		}
		status = *res
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, false)
		if err != nil {
			exitf("Failed to initialize: %v", err)
		}
		defer components.Close()
		status = localStatus(cfg, components)
	}

	if err := writeStatus(os.Stdout, &status, *outputFormat); err != nil {
		exitf("%v", err)
	}
}

func localStatus(cfg *config.Config, c *Components) statusResponse {
	s := statusResponse{
		Status: "ok",
		Index: statusIndex{
			Type:       c.Index.Type(),
			Size:       c.Index.Size(),
			Dimensions: c.Index.Dimensions(),
			Metric:     string(c.Index.Metric()),
		},
		Embeddings:  c.Table.Len(),
		Products:    c.Products.Len(),
		OutputCount: c.Service.OutputCount(),
	}
	if b, ok := c.Index.(interface{ BuildID() string }); ok {
		s.Index.BuildID = b.BuildID()
	}
	a := cfg.Artifacts
	if diskBytes, err := storage.DiskUsageBytes(a.IndexPath, a.EmbeddingsPath, a.ProductsPath); err == nil {
		s.DiskUsageBytes = &diskBytes
	}
	return s
}

func writeStatus(w io.Writer, status *statusResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text":
		fmt.Fprintf(w, "status:             %s\n", status.Status)
		fmt.Fprintf(w, "index_type:         %s\n", status.Index.Type)
		fmt.Fprintf(w, "index_size:         %d   # vectors in the loaded index\n", status.Index.Size)
		fmt.Fprintf(w, "dimensions:         %d\n", status.Index.Dimensions)
		fmt.Fprintf(w, "metric:             %s\n", status.Index.Metric)
		if status.Index.BuildID != "" {
			fmt.Fprintf(w, "build_id:           %s\n", status.Index.BuildID)
		}
		fmt.Fprintf(w, "embeddings:         %d   # rows in the embedding table\n", status.Embeddings)
		fmt.Fprintf(w, "products:           %d   # products with metadata\n", status.Products)
		fmt.Fprintf(w, "output_count:       %d\n", status.OutputCount)
		if status.DiskUsageBytes != nil {
			fmt.Fprintf(w, "disk_usage_bytes:   %d   # artifacts on disk\n", *status.DiskUsageBytes)
		}
		if status.Stale {
			fmt.Fprintln(w, "\n# artifacts changed on disk since startup; restart to load them")
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", format)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Index    vector.VectorIndex
	Table    *catalog.EmbeddingTable
	Products *catalog.ProductCatalog
	Encoder  embedding.Embedder
	Service  *recommend.Service
	Images   *assets.Resolver
}

func (c *Components) Close() {
	if c.Encoder != nil {
		_ = c.Encoder.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

// initializeComponents loads every artifact and builds the retrieval service.
// Any failure is fatal to the caller: a partially loaded store never serves.
// The text encoder is only loaded when withEncoder is set.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withEncoder bool) (*Components, error) {
	c := &Components{}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	index, err := vector.Open(cfg.Artifacts.IndexType, cfg.Artifacts.IndexPath, cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}
	c.Index = index
	if want, err := vector.ParseMetric(cfg.Index.Metric); err == nil && want != index.Metric() {
		logger.Warn("index metric differs from config; using the artifact's metric",
			zap.String("config", string(want)), zap.String("artifact", string(index.Metric())))
	}
	logger.Info("vector index loaded",
		zap.String("type", index.Type()),
		zap.Int("vectors", index.Size()),
		zap.Int("dimensions", index.Dimensions()),
		zap.Bool("faiss_available", vector.IsFAISSAvailable()))

	table, err := catalog.LoadEmbeddingTable(cfg.Artifacts.EmbeddingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding table: %w", err)
	}
	c.Table = table

	if cfg.Artifacts.ProductsPath != "" {
		products, err := catalog.LoadProducts(cfg.Artifacts.ProductsPath)
		if err != nil {
			logger.Warn("product metadata unavailable", zap.String("path", cfg.Artifacts.ProductsPath), zap.Error(err))
		} else {
			c.Products = products
		}
	}

	if withEncoder {
		encoder, err := newEncoder(cfg, index.Dimensions(), logger)
		if err != nil {
			return nil, err
		}
		c.Encoder = encoder
	}

	svc, err := recommend.NewService(index, table, c.Encoder, recommend.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	c.Service = svc
	c.Images = assets.NewDirResolver(cfg.Assets.ImageDirs, cfg.Assets.Extensions)
	metrics.SetIndexVectors(index.Size())

	ok = true
	return c, nil
}

// newEncoder creates the configured text encoder wrapped in a Guard. The encoder
// dimensionality must equal the index dimensionality.
func newEncoder(cfg *config.Config, indexDims int, logger *zap.Logger) (embedding.Embedder, error) {
	var inner embedding.Embedder
	switch cfg.Embedding.Provider {
	case embedding.ProviderMock:
		logger.Warn("using mock text encoder; text queries are not semantically meaningful")
		inner = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	case embedding.ProviderONNX, "":
		if cfg.Embedding.TokenizerPath == "" {
			return nil, fmt.Errorf("failed to load text encoder: %w", embedding.ErrNoTokenizer)
		}
		onnx, err := embedding.NewONNXEmbedder(embedding.ONNXConfig{
			ModelPath:     cfg.Embedding.ModelPath,
			TokenizerPath: cfg.Embedding.TokenizerPath,
			Dimensions:    cfg.Embedding.Dimensions,
			MaxTokens:     cfg.Embedding.MaxTokens,
			CacheSize:     cfg.Embedding.CacheSize,
			InputNames:    cfg.Embedding.InputNames,
			OutputName:    cfg.Embedding.OutputName,
			Normalize:     cfg.Embedding.Normalize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load text encoder: %w", err)
		}
		inner = onnx
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, mock)", cfg.Embedding.Provider)
	}

	if inner.Dimensions() != indexDims {
		_ = inner.Close()
		return nil, fmt.Errorf("%w: encoder produces %d dimensions, index has %d",
			vector.ErrDimensionMismatch, inner.Dimensions(), indexDims)
	}
	return embedding.NewGuard(inner, indexDims,
		embedding.WithMaxConcurrency(cfg.Embedding.MaxConcurrency),
		embedding.WithTimeout(cfg.Embedding.Timeout),
		embedding.WithLogger(logger)), nil
}

func printUsage() {
	fmt.Println(`osusume - Content-based product recommendation service

Usage:
  osusume server [flags]                Start the HTTP server
  osusume similar [flags] <sku>         Recommend products similar to a product
  osusume search [flags] <text>         Recommend products matching free text
  osusume build-index [flags]           Build the vector index from an embedding table
  osusume import [flags]                Import product/embedding tables into the SQLite catalog
  osusume status [flags]                Show index and catalog status
  osusume version                       Show version
  osusume help                          Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/osusume/config.yaml)
  --debug            Enable debug logging

Similar/Search Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to load artifacts directly.
  --output string    Output format: text, compact or json (default: text)
  --distances        Include distances in the output

Build-index Flags:
  --embeddings string  Embedding table (default: artifacts.embeddings_path)
  --out string         Index artifact path (default: artifacts.index_path)
  --metric string      l2 or ip (default: index.metric)

Import Flags:
  --products string    Product table (csv, tsv, xlsx)
  --embeddings string  Embedding table (csv, tsv, xlsx)
  --db string          SQLite catalog (default: artifacts.catalog_db_path)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct mode.
  --output string    Output format: text or json (default: text)

Examples:
  osusume build-index --embeddings data/embeddings.csv --out data/items.osvi
  osusume server
  osusume similar 1043210
  osusume search red summer dress
  osusume search --output json --distances "wool coat"
  osusume import --products data/products.csv --embeddings data/embeddings.csv
  osusume status --output json`)
}
