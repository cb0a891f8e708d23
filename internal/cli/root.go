package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/logger"
)

var (
	cfgFile  string
	storeDir string
	verbose  bool
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your documents",
	Long: `docqa indexes PDF and text documents into named collections and answers
questions about them with a hosted language model. Answers are grounded in
the retrieved passages, with the sources on hand.

Example usage:
  docqa sync manuals ./docs      # Ingest a directory into a collection
  docqa ask "How do I descale?"  # Ask across all collections
  docqa search -q "descaling"    # Inspect what retrieval would return`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is optional; environment variables win either way.
		godotenv.Load()

		if storeDir == "" {
			storeDir = config.DefaultStoreDir()
		}

		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(storeDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger.SetVerbose(verbose || cfg.Logging.Verbose)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <store>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "", "store directory (default is ~/.docqa)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

func GetConfig() *config.Config {
	return cfg
}

func GetStoreDir() string {
	return storeDir
}
