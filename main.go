package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"runtime"

	"spade-bench/dataset"
	"spade-bench/encryption"
	"spade-bench/service"
	"spade-bench/storage"
)

type Config struct {
	HypnogramDir  string
	DNADir        string
	OutputDir     string
	NumUsers      int
	SecurityParam int
	UserIndex     int
	Workers       int
	Seed          []byte
}

// datasetRun pairs a data type with the directory holding its files
type datasetRun struct {
	dataType string
	dir      string
}

func main() {
	config := parseFlags()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to setup output directory: %v", err)
	}

	keys, err := encryption.Setup(config.NumUsers, config.SecurityParam, encryption.NewPRNG())
	if err != nil {
		log.Fatalf("Key setup failed: %v", err)
	}
	log.Printf("Generated keys for %d users (security parameter %d bits)", keys.NumUsers(), keys.SecurityParam())
	log.Printf("Master public values fingerprint: %s", keys.Fingerprint())

	spade := encryption.NewSPADE(keys)

	userKey, err := pickUserKey()
	if err != nil {
		log.Fatalf("Failed to select user key: %v", err)
	}

	decryptionKey, err := keys.KeyDerivation(config.UserIndex)
	if err != nil {
		log.Fatalf("Key derivation failed: %v", err)
	}
	log.Printf("Using user key %s, derived decryption key for user %d (%d bits)",
		userKey, config.UserIndex, decryptionKey.BitLen())

	runner, err := service.NewBatchRunner(spade, userKey, service.RunnerConfig{
		Workers: config.Workers,
		Seed:    config.Seed,
	})
	if err != nil {
		log.Fatalf("Failed to initialize batch runner: %v", err)
	}

	store, err := storage.New(filepath.Join(config.OutputDir, "reports"))
	if err != nil {
		log.Fatalf("Failed to setup storage: %v", err)
	}

	runs := []datasetRun{
		{dataType: dataset.TypeHypnogram, dir: config.HypnogramDir},
		{dataType: dataset.TypeDNA, dir: config.DNADir},
	}

	processed := 0
	for _, run := range runs {
		if run.dir == "" {
			continue
		}
		processed++

		log.Printf("Processing %s dataset...", run.dataType)
		report, err := runner.ProcessDirectory(run.dir, run.dataType)
		if err != nil {
			log.Fatalf("Failed to process %s dataset: %v", run.dataType, err)
		}

		csvPath := storage.CSVPath(config.OutputDir, run.dataType)
		if err := storage.SaveCSV(csvPath, report); err != nil {
			log.Fatalf("Failed to save %s results: %v", run.dataType, err)
		}
		log.Printf("%s results saved to '%s'", run.dataType, csvPath)

		if _, err := store.SaveReport(report); err != nil {
			log.Printf("Warning: failed to archive %s report: %v", run.dataType, err)
		}

		summary := service.Summarize(report)
		log.Printf("%s: %d files, %d failed, mean encryption %.6fs, mean decryption %.6fs, overhead %.2fx, %d mismatched elements",
			run.dataType, summary.Files, summary.Failed, summary.MeanEncryption, summary.MeanDecryption,
			summary.MeanStorageOverhead, summary.TotalMismatches)
	}

	if processed == 0 {
		log.Fatal("No dataset directory given, use -hypnogram and/or -dna")
	}

	metrics := runner.Metrics()
	log.Printf("Done: %d files processed, %d failed, %d elements, encryption %d ms, decryption %d ms",
		metrics.Processed, metrics.Failed, metrics.Elements,
		metrics.Encryption.ProcessingTime, metrics.Decryption.ProcessingTime)
}

// pickUserKey draws the encryption key uniformly from [1, 10]
func pickUserKey() (*big.Int, error) {
	v, err := rand.Int(encryption.NewPRNG(), big.NewInt(10))
	if err != nil {
		return nil, err
	}
	return v.Add(v, big.NewInt(1)), nil
}

func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.HypnogramDir, "hypnogram", "", "Directory of hypnogram dataset files")
	flag.StringVar(&config.DNADir, "dna", "", "Directory of DNA dataset files")
	flag.StringVar(&config.OutputDir, "out", storage.DefaultDir, "Directory for result tables and reports")
	flag.IntVar(&config.NumUsers, "users", 10, "Number of registered users")
	flag.IntVar(&config.SecurityParam, "security", 64, "Security parameter in bits")
	flag.IntVar(&config.UserIndex, "user-index", 0, "User whose decryption key is derived")
	flag.IntVar(&config.Workers, "workers", runtime.NumCPU(), "Number of parallel workers")

	var seedHex string
	flag.StringVar(&seedHex, "seed", "", "Hex run seed for reproducible noise (random if empty)")

	flag.Parse()

	if config.NumUsers < 1 {
		log.Fatal("Number of users must be at least 1")
	}
	if config.SecurityParam < 1 {
		log.Fatal("Security parameter must be positive")
	}
	if config.Workers < 1 {
		log.Fatal("Number of workers must be at least 1")
	}

	if seedHex != "" {
		seed, err := hex.DecodeString(seedHex)
		if err != nil {
			log.Fatalf("Invalid seed: %v", err)
		}
		config.Seed = seed
	}

	return config
}
