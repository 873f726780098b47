// Package main is the revgeo CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/revgeo/internal/attrs"
	"github.com/hyperjump/revgeo/internal/cache"
	"github.com/hyperjump/revgeo/internal/cli"
	"github.com/hyperjump/revgeo/internal/config"
	"github.com/hyperjump/revgeo/internal/geocoder"
	"github.com/hyperjump/revgeo/internal/importer"
	"github.com/hyperjump/revgeo/internal/search"
	"github.com/hyperjump/revgeo/internal/spatial"
	"github.com/hyperjump/revgeo/internal/watcher"
	"github.com/hyperjump/revgeo/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/revgeo/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present; when neither exists the built-in defaults are used.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			cfg := &config.Config{}
			config.ApplyEnv(cfg)
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	config.LoadEnv()
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	args := os.Args[2:]
	var code int
	switch command := os.Args[1]; command {
	case "reverse":
		code = runReverse(args, os.Stdout, os.Stderr)
	case "import":
		code = runImport(args, os.Stdout, os.Stderr)
	case "watch":
		code = runWatch(args, os.Stderr)
	case "attrs":
		code = runAttrs(args, os.Stdout, os.Stderr)
	case "status":
		code = runStatus(args, os.Stdout, os.Stderr)
	case "version", "--version", "-v":
		fmt.Printf("revgeo version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage(os.Stdout)
		code = 1
	}
	os.Exit(code)
}

// valueFlags are the reverse flags that consume the next argument.
var valueFlags = map[string]bool{"config": true, "class": true, "output": true}

// reverseArgsReorder moves flags (and their values) in front of the coordinates so that
// flag.Parse sees them. Negative coordinates such as -73.98 are kept as positionals.
func reverseArgsReorder(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(a, "-") || isNumber(a) {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if !strings.Contains(name, "=") && valueFlags[name] && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	out := append(flags, "--")
	return append(out, positional...)
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func runReverse(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reverse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	classes := fs.String("class", "", "comma separated class filters (e.g. boundary,highway)")
	debug := fs.Bool("debug", false, "record every issued query and timing")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: revgeo reverse [flags] <lon> <lat>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(reverseArgsReorder(args)); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx := context.Background()
	components, logger, code := setup(ctx, *configPath, *debug, stderr)
	if components == nil {
		return code
	}
	defer logger.Sync()
	defer components.Close()

	reply := components.Service.Reverse(ctx, fs.Arg(0), fs.Arg(1), *classes, *debug)
	if err := cli.WriteReply(stdout, reply, format); err != nil {
		fmt.Fprintf(stderr, "Output failed: %v\n", err)
		return 1
	}
	if reply.Err() != nil {
		return 1
	}
	return 0
}

func runImport(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	batch := fs.Int("batch", 0, "places per write batch (default from config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	components, logger, code := setup(ctx, *configPath, false, stderr)
	if components == nil {
		return code
	}
	defer logger.Sync()
	defer components.Close()

	paths := fs.Args()
	if len(paths) == 0 {
		paths = components.Config.Import.Directories
	}
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "Usage: revgeo import [flags] <file-or-directory>...")
		return 2
	}
	im := components.Importer
	if *batch > 0 {
		im = components.newImporter(*batch)
	}

	var total importer.Stats
	for _, p := range paths {
		st, err := im.ImportPath(ctx, p, components.Config.Import.RecursiveOrDefault())
		total.Add(st)
		if err != nil {
			fmt.Fprintf(stderr, "Import failed: %v\n", err)
			return 1
		}
	}
	fmt.Fprintf(stdout, "Imported %d place(s) from %d file(s), skipped %d row(s)\n", total.Imported, total.Files, total.Skipped)
	return 0
}

func runWatch(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	components, logger, code := setup(ctx, *configPath, *debug, stderr)
	if components == nil {
		return code
	}
	defer logger.Sync()
	defer components.Close()

	imp := components.Config.Import
	if len(imp.Directories) == 0 {
		fmt.Fprintln(stderr, "No import directories configured (import.directories)")
		return 2
	}
	w := watcher.NewWatcher(
		imp.Directories,
		imp.Extensions,
		imp.RecursiveOrDefault(),
		func(path string) {
			if _, err := components.Importer.ImportFile(ctx, path); err != nil {
				logger.Warn("dataset import failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			logger.Warn("dataset removed; its places stay indexed until re-imported", zap.String("path", path))
		},
		watcher.WithLogger(logger),
	)
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start watcher", zap.Error(err))
		return 1
	}
	w.SyncExistingFiles()
	<-ctx.Done()
	logger.Info("shutting down")
	w.Stop()
	return 0
}

func runAttrs(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("attrs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx := context.Background()
	components, logger, code := setup(ctx, *configPath, false, stderr)
	if components == nil {
		return code
	}
	defer logger.Sync()
	defer components.Close()

	values := make(map[string][]string)
	if c := components.Catalog; c != nil {
		for _, name := range c.Attributes() {
			values[name] = c.Values(name)
		}
	}
	if err := cli.WriteAttributes(stdout, values, format); err != nil {
		fmt.Fprintf(stderr, "Output failed: %v\n", err)
		return 1
	}
	return 0
}

func runStatus(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx := context.Background()
	components, logger, code := setup(ctx, *configPath, false, stderr)
	if components == nil {
		return code
	}
	defer logger.Sync()
	defer components.Close()

	n, err := components.Backend.Count(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Status failed: %v\n", err)
		return 1
	}
	status := cli.Status{Backend: components.Backend.Name(), Places: n, Cache: "disabled"}
	if components.Cache != nil {
		status.Cache = "connected"
	}
	if err := cli.WriteStatus(stdout, status, format); err != nil {
		fmt.Fprintf(stderr, "Output failed: %v\n", err)
		return 1
	}
	return 0
}

// setup loads config, builds the logger and initializes components.
// On failure it reports to stderr and returns a nil Components with the exit code.
func setup(ctx context.Context, configPath string, debug bool, stderr io.Writer) (*Components, *zap.Logger, int) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return nil, nil, 1
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return nil, nil, 1
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.String("backend", cfg.Index.Backend))

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize: %v\n", err)
		_ = logger.Sync()
		return nil, nil, 1
	}
	return components, logger, 0
}

// Components holds initialized services.
type Components struct {
	Config   *config.Config
	Backend  spatial.Backend
	Cache    *cache.RedisCache
	Catalog  *attrs.Catalog
	Engine   *search.Engine
	Service  *geocoder.Service
	Importer *importer.Importer
	logger   *zap.Logger
}

// Close releases the index and cache connections.
func (c *Components) Close() {
	if c.Backend != nil {
		if err := c.Backend.Close(); err != nil {
			c.logger.Warn("failed to close point index", zap.Error(err))
		}
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}

func (c *Components) newImporter(batchSize int) *importer.Importer {
	return importer.NewImporter(c.Backend, batchSize,
		importer.WithExtensions(c.Config.Import.Extensions),
		importer.WithLogger(c.logger))
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	backend, err := spatial.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize point index: %w", err)
	}
	c := &Components{
		Config:  cfg,
		Backend: backend,
		logger:  logger,
	}
	c.Importer = c.newImporter(cfg.Import.BatchSize)

	catalog, err := attrs.Load(ctx, backend, cfg.Attributes.Names, cfg.Attributes.MaxValues, attrs.WithLogger(logger))
	if err != nil {
		logger.Warn("attribute catalog unavailable, class filters are not checked", zap.Error(err))
	} else {
		c.Catalog = catalog
	}

	if cfg.Cache.Enabled {
		rc := cache.Open(&cfg.Cache)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("result cache unavailable, continuing without it", zap.String("addr", cfg.Cache.Addr), zap.Error(err))
			_ = rc.Close()
		} else {
			c.Cache = rc
		}
	}

	c.Engine = search.NewEngine(backend, &cfg.Search, search.WithLogger(logger))
	opts := []geocoder.Option{geocoder.WithLogger(logger), geocoder.WithCatalog(c.Catalog)}
	if c.Cache != nil {
		opts = append(opts, geocoder.WithCache(c.Cache))
	}
	c.Service = geocoder.NewService(c.Engine, opts...)
	return c, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `revgeo - Reverse geocoding over OSMNames datasets

Usage:
  revgeo reverse [flags] <lon> <lat>   Find the place nearest to a point
  revgeo import [flags] [path...]      Import OSMNames TSV files (plain or .gz)
  revgeo watch [flags]                 Re-import datasets when import directories change
  revgeo attrs [flags]                 List known attribute values (country codes, classes)
  revgeo status [flags]                Show point index status
  revgeo version                       Show version
  revgeo help                          Show this help

Reverse Flags:
  --config string    Config file path (default: /usr/local/etc/revgeo/config.yaml)
  --class string     Comma separated class filters
  --debug            Record issued queries and timings
  --output string    Output format: text or json (default: text)

Import Flags:
  --config string    Config file path
  --batch int        Places per write batch (default: import.batch_size)

Examples:
  revgeo import planet-latest.tsv.gz
  revgeo reverse 14.4378 50.0755
  revgeo reverse --class boundary,place -73.9857 40.7484
  revgeo reverse --output json --debug 178.44 -18.14
  revgeo attrs --output json`)
}
