package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracekit/trace"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics of a trace database.",
	Long: "`stats --sqlite [file]` prints per-location task counts and " +
		"durations of a SQLite trace database.",
	Run: func(cmd *cobra.Command, _ []string) {
		sqliteFile, _ := cmd.Flags().GetString("sqlite")
		if sqliteFile == "" {
			log.Fatal("Error: must specify a SQLite file with --sqlite " +
				"or TRACEKIT_SQLITE.")
		}

		reader := trace.NewSQLiteTraceReader(sqliteFile)
		reader.Init()

		printStats(reader)
	},
}

func printStats(reader *trace.SQLiteTraceReader) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "LOCATION\tTASKS\tFAILED\tTOTAL TIME\tAVG TIME")

	for _, location := range reader.ListLocations() {
		tasks := reader.ListTasks(trace.TaskQuery{Where: location})

		var totalTime float64
		failed := 0
		for _, t := range tasks {
			totalTime += float64(t.EndTime - t.StartTime)
			if t.Error != "" {
				failed++
			}
		}

		avgTime := 0.0
		if len(tasks) > 0 {
			avgTime = totalTime / float64(len(tasks))
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%.6f\t%.6f\n",
			location, len(tasks), failed, totalTime, avgTime)
	}

	err := w.Flush()
	if err != nil {
		log.Fatalf("Error printing stats: %v", err)
	}
}

func init() {
	statsCmd.Flags().String("sqlite",
		envOrDefault("TRACEKIT_SQLITE", ""),
		"Name of the SQLite file to read from.")

	rootCmd.AddCommand(statsCmd)
}
