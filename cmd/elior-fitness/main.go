package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"elior-fitness/internal/app"
	"elior-fitness/internal/backend"
	"elior-fitness/internal/clipper"
	"elior-fitness/internal/config"
	"elior-fitness/internal/database"
	"elior-fitness/internal/llm"
	"elior-fitness/internal/metrics"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	config.LoadDotEnv()
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	bank := backend.NewClient(cfg, metricsStore)

	var textGen llm.TextGenerator
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		defer geminiClient.Close()
		textGen = geminiClient
	}
	foodClipper := clipper.NewClipper(bank, textGen, metricsStore)

	application := app.NewApp(bank, foodClipper, metricsStore, cfg)

	switch os.Args[1] {
	case "totals":
		if len(os.Args) < 3 {
			log.Fatal("Usage: elior-fitness totals <plan.json>")
		}
		if err := application.Totals(os.Args[2]); err != nil {
			log.Fatalf("Totals failed: %v", err)
		}
	case "submit":
		if len(os.Args) < 3 {
			log.Fatal("Usage: elior-fitness submit <plan.json>")
		}
		if err := application.Submit(ctx, os.Args[2]); err != nil {
			log.Fatalf("Submit failed: %v", err)
		}
	case "bank":
		if len(os.Args) < 3 {
			log.Fatal("Usage: elior-fitness bank <protein|carb|fat>")
		}
		if err := application.ListBank(ctx, os.Args[2]); err != nil {
			log.Fatalf("Listing meal bank failed: %v", err)
		}
	case "import-food":
		importCmd := flag.NewFlagSet("import-food", flag.ExitOnError)
		macro := importCmd.String("macro", "", "Macro type of the food: protein, carb or fat")
		public := importCmd.Bool("public", false, "Share the food with all coaches")
		importCmd.Parse(os.Args[2:])
		if importCmd.NArg() < 1 || *macro == "" {
			log.Fatal("Usage: elior-fitness import-food -macro <type> [-public] <url>")
		}
		if err := application.ImportFood(ctx, importCmd.Arg(0), *macro, *public); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := application.CleanupMetrics(*days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: elior-fitness <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  totals <plan.json>                 Print nutrition totals and budgets of a plan")
	fmt.Println("  submit <plan.json>                 Validate and submit a plan to the backend")
	fmt.Println("  bank <protein|carb|fat>            List meal bank foods")
	fmt.Println("  import-food -macro <type> <url>    Add a food from a nutrition page")
	fmt.Println("  metrics-cleanup -days N            Remove old metric records")
}
