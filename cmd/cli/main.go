package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-recommender/internal/audit"
	"github.com/dvloznov/finance-recommender/internal/config"
	"github.com/dvloznov/finance-recommender/internal/dataset"
	"github.com/dvloznov/finance-recommender/internal/domain"
	"github.com/dvloznov/finance-recommender/internal/gcsstore"
	"github.com/dvloznov/finance-recommender/internal/kvstore"
	"github.com/dvloznov/finance-recommender/internal/logger"
	"github.com/dvloznov/finance-recommender/internal/pipeline"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runAll(log)
	case "user":
		runUser(log)
	case "upload":
		runUpload(log)
	case "publish":
		runPublish(log)
	case "show":
		runShow(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Recommender CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  run       Run the recommendation pipeline for every user")
	fmt.Println("  user      Run the pipeline for a single user")
	fmt.Println("  upload    Upload a CSV table to the storage bucket")
	fmt.Println("  publish   Publish existing report files to the key-value store")
	fmt.Println("  show      Print a user's persisted report")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// newRunner wires the pipeline dependencies from configuration. The returned
// close function releases the key-value store.
func newRunner(ctx context.Context, cfg *config.Config, resolveProducts bool) (*pipeline.Runner, func(), error) {
	storage := gcsstore.NewClient(cfg.CredentialsFile)
	loader := dataset.NewLoader(storage, cfg.Bucket, cfg.Prefix)

	catalog, err := loader.LoadCatalog(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading product catalog: %w", err)
	}

	store, err := kvstore.Open(cfg.BadgerPath, cfg.KVJSONString)
	if err != nil {
		return nil, nil, fmt.Errorf("opening key-value store: %w", err)
	}

	var recorder pipeline.RunRecorder = audit.NoopRecorder{}
	if cfg.BigQueryProject != "" {
		recorder = audit.NewRecorder(cfg.BigQueryProject, cfg.BigQueryDataset)
	}

	runner := &pipeline.Runner{
		Generator:       pipeline.NewGeminiGenerator(cfg.ModelName),
		Loader:          loader,
		Catalog:         catalog,
		Recorder:        recorder,
		Store:           store,
		OutputDir:       cfg.OutputDir,
		LLMTimeout:      cfg.LLMTimeout,
		ResolveProducts: resolveProducts,
	}
	return runner, func() { store.Close() }, nil
}

func runAll(log zerolog.Logger) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	resolve := fs.Bool("resolve", false, "resolve recommendation IDs to full product records")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	ctx := logger.WithContext(context.Background(), log)

	runner, closeStore, err := newRunner(ctx, cfg, *resolve)
	if err != nil {
		log.Fatal().Err(err).Msg("Pipeline setup failed")
	}
	defer closeStore()

	users, err := runner.Loader.LoadUsers(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading user list failed")
	}

	log.Info().Int("users", len(users)).Msg("Starting recommendation pipeline")
	start := time.Now()
	completed := runner.ProcessAll(ctx, users)

	log.Info().
		Int("completed", completed).
		Int("failed", len(users)-completed).
		Dur("elapsed", time.Since(start)).
		Msg("Pipeline finished")

	fmt.Printf("Processed %d/%d users.\n", completed, len(users))
}

func runUser(log zerolog.Logger) {
	fs := flag.NewFlagSet("user", flag.ExitOnError)
	userID := fs.String("user-id", "", "user ID to process")
	resolve := fs.Bool("resolve", false, "resolve recommendation IDs to full product records")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user-id is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	ctx := logger.WithContext(context.Background(), log)

	runner, closeStore, err := newRunner(ctx, cfg, *resolve)
	if err != nil {
		log.Fatal().Err(err).Msg("Pipeline setup failed")
	}
	defer closeStore()

	users, err := runner.Loader.LoadUsers(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading user list failed")
	}

	var user *domain.UserInfo
	for i := range users {
		if users[i].ID == *userID {
			user = &users[i]
			break
		}
	}
	if user == nil {
		log.Fatal().Str("user_id", *userID).Msg("User not found in the user table")
	}

	if _, err := runner.ProcessUser(ctx, *user); err != nil {
		log.Fatal().Err(err).Msg("User pipeline failed")
	}

	fmt.Printf("Report written for user %s.\n", *userID)
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	objectName := fs.String("object", "", "object name under the prefix (defaults to filename)")
	filePath := fs.String("file", "", "path to local CSV file")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -file PATH [-object NAME]")
	}
	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	ctx := logger.WithContext(context.Background(), log)
	object := cfg.Prefix + *objectName

	log.Info().
		Str("bucket", cfg.Bucket).
		Str("object", object).
		Str("file", *filePath).
		Msg("Uploading table to storage")

	storage := gcsstore.NewClient(cfg.CredentialsFile)
	if err := storage.UploadFile(ctx, cfg.Bucket, object, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *filePath, cfg.Bucket, object)
}

// runPublish loads report files previously written by the pipeline and
// upserts them into the key-value store, one record per user.
func runPublish(log zerolog.Logger) {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	dir := fs.String("dir", "", "directory of report files (defaults to the configured output dir)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}
	if *dir == "" {
		*dir = cfg.OutputDir
	}

	ctx := logger.WithContext(context.Background(), log)

	store, err := kvstore.Open(cfg.BadgerPath, cfg.KVJSONString)
	if err != nil {
		log.Fatal().Err(err).Msg("Opening key-value store failed")
	}
	defer store.Close()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("Reading report directory failed")
	}

	published := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "output_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		userID := strings.TrimSuffix(strings.TrimPrefix(name, "output_"), ".json")

		data, err := os.ReadFile(filepath.Join(*dir, name))
		if err != nil {
			log.Error().Err(err).Str("file", name).Msg("Reading report file failed")
			continue
		}

		var report domain.FinalReport
		if err := json.Unmarshal(data, &report); err != nil {
			log.Error().Err(err).Str("file", name).Msg("Report file is not valid JSON")
			continue
		}

		if err := store.PutReport(ctx, userID, &report); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Publishing report failed")
			continue
		}
		published++
	}

	fmt.Printf("Published %d reports.\n", published)
}

func runShow(log zerolog.Logger) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	userID := fs.String("user-id", "", "user ID to show")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user-id is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	store, err := kvstore.Open(cfg.BadgerPath, cfg.KVJSONString)
	if err != nil {
		log.Fatal().Err(err).Msg("Opening key-value store failed")
	}
	defer store.Close()

	report, found, err := store.GetReport(context.Background(), *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Fetching report failed")
	}
	if !found {
		log.Fatal().Str("user_id", *userID).Msg("No persisted report for user")
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Encoding report failed")
	}
	fmt.Println(string(out))
}
