package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/studentai/internal/config"
	"github.com/abhisek/studentai/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "studentai",
	Short: "Student assistant API server",
	Long:  "StudentAI serves notes, quizzes, a study drive, health and search helpers backed by an LLM.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a yaml config file (default ./config/studentai.yaml)")
	rootCmd.PersistentFlags().String("env-file", "", "Path to a dotenv file (default ./.env)")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding notes, catalogs and reports (overrides data_dir)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides STUDENTAI_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration and applies the --data-dir flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(config.Options{ConfigFile: cfgFile, EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	if d, _ := cmd.Flags().GetString("data-dir"); d != "" {
		cfg.DataDir = d
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then db_path from config, then STUDENTAI_DB or the default data path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath(cfg.DataDir)
}

// openStore loads configuration and opens the event database.
func openStore(cmd *cobra.Command) (*config.Config, *store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, s, nil
}
