package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracekit/viewer"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Serve a trace database over HTTP.",
	Long: "`view --sqlite [file]` starts a web server that serves the " +
		"tasks in a SQLite trace database.",
	Run: func(cmd *cobra.Command, _ []string) {
		httpAddr, _ := cmd.Flags().GetString("http")
		sqliteFile, _ := cmd.Flags().GetString("sqlite")
		noBrowser, _ := cmd.Flags().GetBool("no-browser")

		if sqliteFile == "" {
			log.Fatal("Error: must specify a SQLite file with --sqlite " +
				"or TRACEKIT_SQLITE.")
		}

		v := viewer.New(sqliteFile, httpAddr)

		err := v.Run(!noBrowser)
		if err != nil {
			log.Fatalf("Error serving traces: %v", err)
		}
	},
}

func init() {
	viewCmd.Flags().String("http",
		envOrDefault("TRACEKIT_HTTP", "0.0.0.0:3001"),
		"HTTP service address (e.g., ':6060')")
	viewCmd.Flags().String("sqlite",
		envOrDefault("TRACEKIT_SQLITE", ""),
		"Name of the SQLite file to read from.")
	viewCmd.Flags().Bool("no-browser", false,
		"Do not open the browser after starting the server.")

	rootCmd.AddCommand(viewCmd)
}
