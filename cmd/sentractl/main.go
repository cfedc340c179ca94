package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sentra-sec/sentractl/internal/api"
	"github.com/sentra-sec/sentractl/internal/archive"
	"github.com/sentra-sec/sentractl/internal/cache"
	"github.com/sentra-sec/sentractl/internal/config"
	"github.com/sentra-sec/sentractl/internal/progress"
	"github.com/sentra-sec/sentractl/internal/resource"
	"github.com/sentra-sec/sentractl/internal/source"
	"github.com/sentra-sec/sentractl/internal/stream"
	"github.com/sentra-sec/sentractl/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/sentractl.yaml", "path to config file")
	kind := flag.String("kind", "processes", "record kind: processes, connections, containers, opsflags, deployments")
	sourceList := flag.String("sources", "", "comma-separated source uids to query")
	allSources := flag.Bool("all", false, "query every active source in the org")
	startStr := flag.String("start", "", "start of the time range (RFC 3339)")
	endStr := flag.String("end", "", "end of the time range (RFC 3339, default now)")
	since := flag.Duration("since", 0, "query the trailing duration instead of -start/-end")
	unbounded := flag.Bool("unbounded", false, "disable the dedup cache bound (exact dedup, unbounded memory)")
	concurrency := flag.Int("concurrency", 0, "max in-flight queries (default from config)")
	quiet := flag.Bool("quiet", false, "suppress the progress line")
	first := flag.Bool("first", false, "hide progress once the first record arrives")
	archiveRun := flag.Bool("archive", false, "persist retrieved records to the archive database")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("sentractl", version.String())
		return
	}

	// Records go to stdout, so logs and progress go to stderr.
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, runParams{
		configPath:  *configPath,
		kind:        *kind,
		sourceList:  *sourceList,
		allSources:  *allSources,
		startStr:    *startStr,
		endStr:      *endStr,
		since:       *since,
		unbounded:   *unbounded,
		concurrency: *concurrency,
		quiet:       *quiet,
		first:       *first,
		archiveRun:  *archiveRun,
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted, no records emitted for the partial run")
			os.Exit(130)
		}
		logger.Error("retrieval failed", "error", err)
		os.Exit(1)
	}
}

type runParams struct {
	configPath  string
	kind        string
	sourceList  string
	allSources  bool
	startStr    string
	endStr      string
	since       time.Duration
	unbounded   bool
	concurrency int
	quiet       bool
	first       bool
	archiveRun  bool
}

func run(ctx context.Context, logger *slog.Logger, p runParams) error {
	cfg, err := config.LoadAndValidate(p.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tr, err := timeRange(p)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.API.URL, cfg.API.Key, cfg.API.OrgUID,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout.Std()),
	)

	sources, err := resolveSources(ctx, client, logger, p)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("no sources to query; pass -sources or -all")
	}

	opts := stream.Options{
		MaxWindow:            cfg.Retrieval.MaxWindow.Std(),
		Cache:                cache.Bounded(cfg.Retrieval.CacheCapacity),
		Concurrency:          cfg.Retrieval.Concurrency,
		Logger:               logger,
		CloseProgressOnFirst: p.first,
	}
	if p.unbounded || cfg.Retrieval.UnboundedMemory {
		opts.Cache = cache.Unbounded()
	}
	if p.concurrency > 0 {
		opts.Concurrency = p.concurrency
	}
	if !p.quiet {
		opts.Progress = progress.NewTerminal(os.Stderr)
	}

	var writer *archive.Writer
	if p.archiveRun {
		if !cfg.Archive.Enabled() {
			return errors.New("-archive requires an archive section in the config")
		}
		pool, err := archive.Connect(ctx, cfg.Archive)
		if err != nil {
			return fmt.Errorf("connect archive: %w", err)
		}
		defer pool.Close()
		writer = archive.NewWriter(pool, cfg.Archive.Table, logger)
		logger.Info("archiving enabled", "batch_id", writer.BatchID(), "table", cfg.Archive.Table)
	}

	logger.Debug("starting retrieval",
		"kind", p.kind,
		"sources", len(sources),
		"start", tr.Start,
		"end", tr.End,
	)

	st, err := openStream(ctx, client, p.kind, sources, tr, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	enc := json.NewEncoder(os.Stdout)
	emitted := 0
	for st.Next() {
		rec := st.Record()
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if writer != nil {
			if err := writer.Write(ctx, rec); err != nil {
				return fmt.Errorf("archive record: %w", err)
			}
		}
		emitted++
	}
	if err := st.Err(); err != nil {
		return err
	}

	if writer != nil {
		if err := writer.Flush(ctx); err != nil {
			return fmt.Errorf("archive flush: %w", err)
		}
		stats := writer.Stats()
		logger.Info("archive complete", "inserts", stats.Inserts, "flushes", stats.Flushes)
	}

	logger.Info("retrieval complete", "records", emitted)
	return nil
}

// openStream binds a kind name to its typed getter.
func openStream(ctx context.Context, client *api.Client, kind string, sources []string, tr stream.TimeRange, opts stream.Options) (*stream.Stream, error) {
	switch kind {
	case "processes":
		return resource.Processes(ctx, client, sources, tr, opts)
	case "connections":
		return resource.Connections(ctx, client, sources, tr, opts)
	case "containers":
		return resource.Containers(ctx, client, sources, tr, opts)
	case "opsflags":
		return resource.OpsFlags(ctx, client, sources, tr, opts)
	case "deployments":
		return resource.Deployments(ctx, client, sources, tr, opts)
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

func resolveSources(ctx context.Context, client *api.Client, logger *slog.Logger, p runParams) ([]string, error) {
	if p.sourceList != "" {
		var uids []string
		for _, uid := range strings.Split(p.sourceList, ",") {
			if uid = strings.TrimSpace(uid); uid != "" {
				uids = append(uids, uid)
			}
		}
		return uids, nil
	}
	if !p.allSources {
		return nil, nil
	}

	registry := source.NewRegistry(client, logger)
	if err := registry.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	// Deployments come from cluster monitors; everything else from
	// machine sources.
	listOpts := source.ListOptions{ExcludeClusterMonitors: p.kind != "deployments"}
	uids := registry.UIDs(listOpts)
	if p.kind == "deployments" {
		clusters := uids[:0]
		for _, uid := range uids {
			if strings.HasPrefix(uid, "clus:") {
				clusters = append(clusters, uid)
			}
		}
		uids = clusters
	}
	return uids, nil
}

func timeRange(p runParams) (stream.TimeRange, error) {
	if p.since > 0 {
		if p.startStr != "" || p.endStr != "" {
			return stream.TimeRange{}, errors.New("-since cannot be combined with -start/-end")
		}
		end := time.Now()
		return stream.TimeRange{Start: end.Add(-p.since), End: end}, nil
	}

	if p.startStr == "" {
		return stream.TimeRange{}, errors.New("pass -start or -since")
	}
	start, err := time.Parse(time.RFC3339, p.startStr)
	if err != nil {
		return stream.TimeRange{}, fmt.Errorf("parse -start: %w", err)
	}

	end := time.Now()
	if p.endStr != "" {
		end, err = time.Parse(time.RFC3339, p.endStr)
		if err != nil {
			return stream.TimeRange{}, fmt.Errorf("parse -end: %w", err)
		}
	}
	return stream.TimeRange{Start: start, End: end}, nil
}
