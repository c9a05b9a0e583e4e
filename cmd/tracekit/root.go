package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "tracekit",
	Short: "TraceKit CLI tool can perform common tasks related to " +
		"working with traces.",
	Long: `TraceKit CLI tool can perform common tasks related to working ` +
		`with traces. Currently, it supports viewing trace databases in a ` +
		`browser and printing trace statistics.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// A .env file can provide TRACEKIT_HTTP and TRACEKIT_SQLITE defaults.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
