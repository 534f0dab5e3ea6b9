package main

import (
	"flag"
	"log"
	"os"

	"spade-bench/dataset"
	"spade-bench/report"
	"spade-bench/storage"
)

func main() {
	input := flag.String("in", storage.CSVPath(storage.DefaultDir, dataset.TypeHypnogram), "Results table written by spade-bench")
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	file, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open results: %v", err)
	}
	defer file.Close()

	rows, err := storage.ReadCSV(file)
	if err != nil {
		log.Fatalf("Failed to read results: %v", err)
	}

	if err := report.Build(rows).Render(os.Stdout); err != nil {
		log.Fatalf("Failed to render charts: %v", err)
	}
}
