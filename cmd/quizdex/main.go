package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizdex/internal/audit"
	"github.com/kailas-cloud/quizdex/internal/config"
	"github.com/kailas-cloud/quizdex/internal/db"
	dbMemory "github.com/kailas-cloud/quizdex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/quizdex/internal/db/redis"
	dbSqlite "github.com/kailas-cloud/quizdex/internal/db/sqlite"
	"github.com/kailas-cloud/quizdex/internal/domain"
	dsting "github.com/kailas-cloud/quizdex/internal/domain/ingest"
	"github.com/kailas-cloud/quizdex/internal/fingerprint"
	logpkg "github.com/kailas-cloud/quizdex/internal/logger"
	questionrepo "github.com/kailas-cloud/quizdex/internal/repository/question"
	tagrepo "github.com/kailas-cloud/quizdex/internal/repository/tag"
	"github.com/kailas-cloud/quizdex/internal/usecase/ingest"
	taguc "github.com/kailas-cloud/quizdex/internal/usecase/tag"
	"github.com/kailas-cloud/quizdex/internal/version"
)

// record is one JSONL input line.
type record struct {
	Category    string   `json:"category"`
	Text        string   `json:"text"`
	Answer      string   `json:"answer"`
	Distractors []string `json:"distractors"`
	Labels      []string `json:"labels"`
}

func main() {
	var (
		file       = flag.String("file", "", "JSONL file with question records (default: stdin)")
		owner      = flag.String("owner", "", "owner user id (required)")
		visibility = flag.String("visibility", "private", "requested visibility: private or global")
		privileged = flag.Bool("privileged", false, "caller may create global tags and larger batches")
	)
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting quizdex loader",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.WithContext(ctx, logger)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open database store", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Connected to database")

	vis, err := domain.ParseVisibility(*visibility)
	if err != nil {
		logger.Fatal("Invalid visibility flag", zap.Error(err))
	}

	// Composition root: engine, resolver, repositories, pipeline.
	engine := fingerprint.New(cfg.Fingerprint.ShingleSize, cfg.Fingerprint.BucketBits)

	resolver := taguc.NewInstrumentedResolver(taguc.New(tagrepo.New(store)), logger)
	questions := questionrepo.New(store)
	sink := audit.New(logger)

	pipeline := ingest.New(engine, resolver, questions, sink).
		WithBatchCaps(cfg.Ingest.MaxBatchSize, cfg.Ingest.MaxBatchSizePrivileged)

	items, err := readRecords(*file)
	if err != nil {
		logger.Fatal("Failed to read input", zap.Error(err))
	}
	if len(items) == 0 {
		logger.Info("No records to ingest")
		return
	}

	batchSize := cfg.Ingest.MaxBatchSize
	if *privileged {
		batchSize = cfg.Ingest.MaxBatchSizePrivileged
	}

	start := time.Now()
	var created, duplicates, failed int

	for off := 0; off < len(items); off += batchSize {
		end := off + batchSize
		if end > len(items) {
			end = len(items)
		}

		outcome, err := pipeline.Ingest(ctx, items[off:end], vis, *owner, *privileged)
		if err != nil {
			logger.Fatal("Batch failed",
				zap.Int("offset", off),
				zap.Error(err),
			)
		}

		created += outcome.Created()
		duplicates += outcome.Duplicates()
		failed += outcome.Failed()

		for _, f := range outcome.Failures() {
			logger.Warn("Record rejected",
				zap.Int("line", off+f.Index()+1),
				zap.String("text", f.Text()),
				zap.Error(f.Err()),
			)
		}
	}

	stored, err := questions.CountByOwner(ctx, *owner)
	if err != nil {
		logger.Warn("Failed to count stored questions", zap.Error(err))
		stored = -1
	}

	logger.Info("Ingestion finished",
		zap.Int("total", len(items)),
		zap.Int("created", created),
		zap.Int("duplicates", duplicates),
		zap.Int("failed", failed),
		zap.Int("stored", stored),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Printf("ingested %d records: %d created, %d duplicates, %d failed; %d stored for owner\n",
		len(items), created, duplicates, failed, stored)
}

// openStore creates the db.Store selected by the configured driver.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (db.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return dbSqlite.Open(ctx, cfg.Database.Path)
	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Database.Addrs,
			Password:  cfg.Database.Password,
			KeyPrefix: cfg.Database.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, 30*time.Second); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case "memory":
		return dbMemory.NewStore(), nil
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
		return nil, nil
	}
}

// readRecords loads JSONL records from path, or stdin when path is empty.
// Blank lines are skipped; a malformed line aborts the load with its line
// number so the input can be fixed before anything is written.
func readRecords(path string) ([]dsting.Item, error) {
	var in *os.File
	if path == "" {
		in = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	}

	var items []dsting.Item
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, dsting.Item{
			Category:    rec.Category,
			Text:        rec.Text,
			Answer:      rec.Answer,
			Distractors: rec.Distractors,
			Labels:      rec.Labels,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
