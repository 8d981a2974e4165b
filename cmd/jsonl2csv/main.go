// Package main re-exports an existing JSONL dataset to CSV.
package main

import (
	"flag"
	"os"

	"ttmusic/internal/dataset"
	"ttmusic/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("jsonl2csv", flag.ContinueOnError)
	input := fs.String("input", "data/out.jsonl", "JSONL dataset to read")
	output := fs.String("output", "data/out.csv", "CSV file to write")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := logger.NewLogger("info")
	defer func() { _ = log.Sync() }()

	rows, err := dataset.ReadJSONL(*input)
	if err != nil {
		log.Error("❌ Failed to read JSONL", "error", err)

		return 1
	}

	if err := dataset.WriteCSV(*output, rows); err != nil {
		log.Error("❌ Failed to write CSV", "error", err)

		return 1
	}

	log.Info("✅ Exported CSV", "input", *input, "output", *output, "rows", len(rows))

	return 0
}
