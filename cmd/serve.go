package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/studentai/internal/cache"
	"github.com/abhisek/studentai/internal/config"
	"github.com/abhisek/studentai/internal/drive"
	"github.com/abhisek/studentai/internal/filestore"
	"github.com/abhisek/studentai/internal/health"
	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/logger"
	"github.com/abhisek/studentai/internal/notes"
	"github.com/abhisek/studentai/internal/quiz"
	"github.com/abhisek/studentai/internal/search"
	"github.com/abhisek/studentai/internal/server"
	"github.com/abhisek/studentai/internal/store"
	"github.com/abhisek/studentai/internal/todo"
	"github.com/abhisek/studentai/internal/transcribe"
	"github.com/abhisek/studentai/internal/translate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

// runServer loads configuration, builds every service and serves until
// SIGINT or SIGTERM.
func runServer(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	respCache, err := cache.New(ctx, cfg.Cache.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect cache: %w", err)
	}
	defer respCache.Close()

	deps := llm.Deps{Events: st.EventRepo(), Cache: respCache, Log: log}
	provider, err := llm.NewProvider(ctx, cfg.LLMConfig(), deps)
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}
	driveProvider, err := llm.NewProvider(ctx, driveLLMConfig(cfg), deps)
	if err != nil {
		return fmt.Errorf("drive LLM provider: %w", err)
	}

	ids := idAllocator(cfg.IDs.Scheme, st.Sequences())

	translator := translate.NewLLMTranslator(provider, log)

	var transcriber transcribe.Transcriber = transcribe.NewLLMTranscriber(provider, log)
	if cfg.Speech.Enabled {
		gcp, err := transcribe.NewGCPTranscriber(ctx, cfg.Speech.LanguageCode, log)
		if err != nil {
			return fmt.Errorf("speech client: %w", err)
		}
		defer gcp.Close()
		transcriber = gcp
	}

	links, err := drive.LoadLinks(cfg.Drive.PredefinedLinksPath)
	if err != nil {
		return err
	}
	var blobs drive.BlobStore
	if cfg.Drive.Bucket != "" {
		gcs, err := drive.NewGCSBlobStore(ctx, cfg.Drive.Bucket, cfg.Drive.PublicBaseURL, log)
		if err != nil {
			return fmt.Errorf("storage client: %w", err)
		}
		defer gcs.Close()
		blobs = gcs
	}

	notesSvc := notes.NewService(cfg.Path("notes"), provider, transcriber, log)

	srv := server.New(server.Deps{
		Notes: notesSvc,
		Drive: drive.NewService(drive.Paths{
			Catalog: cfg.Path("drive_database.json"),
			Files:   cfg.Path("drive_files"),
		}, links, blobs, driveProvider, ids, log),
		Health: health.NewService(provider, translator, health.Paths{
			History:   cfg.Path("health_history.json"),
			Reminders: cfg.Path("health_reminders.json"),
		}, ids, log),
		Generator:      quiz.NewGenerator(provider, notesSvc, nil, log),
		Evaluator:      quiz.NewEvaluator(provider, quiz.Grader{Threshold: cfg.Quiz.ShortAnswerThreshold}, log),
		Reports:        quiz.NewReportLog(cfg.Path("quiz_reports.csv")),
		Search:         search.NewService(provider, translator, log),
		Todo:           todo.NewService(cfg.Path("todo_list.json"), ids, log),
		Log:            log,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	addr := cfg.Server.Addr
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		addr = a
	}
	log.Info("starting studentai", "env", cfg.Env, "provider", cfg.LLM.Provider, "data_dir", cfg.DataDir, "cloud_drive", blobs != nil)
	return srv.Run(ctx, addr)
}

// idAllocator draws record ids from the durable counters unless the max
// scheme is configured.
func idAllocator(scheme string, seqs *store.Sequences) filestore.IDAllocator {
	if scheme == "max" || seqs == nil {
		return filestore.MaxKeyAllocator{}
	}
	return filestore.SequenceAllocator{Seqs: seqs}
}

// driveLLMConfig selects the drive model when Gemini is the provider.
func driveLLMConfig(cfg *config.Config) llm.Config {
	out := cfg.LLMConfig()
	if out.Provider == "gemini" && cfg.Drive.Model != "" {
		out.Gemini.Model = cfg.Drive.Model
	}
	return out
}
