package main

import (
	"os"

	"social-integration/infrastructure/configuration"
	"social-integration/infrastructure/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "social-integration",
	Short: "Publish content and messages to Facebook, TikTok, Zalo and YouTube",
	Long: `social-integration connects CRM users to their social platform accounts and
publishes normalized content to one or many platforms through a single API.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// env files never override the real environment
		if loaded := configuration.LoadEnvFromFile("config.env", ".env"); len(loaded) > 0 {
			logger.GetLogger().WithField("files", loaded).Info("Loaded env files")
			configuration.Reload()
		}
	},
	RunE: runServe,
}

func main() {
	defer func() {
		if err := recover(); err != nil {
			logger.GetLogger().WithField("error", err).Error("Application panic recovered")
			os.Exit(2)
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
