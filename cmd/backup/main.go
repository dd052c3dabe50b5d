package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pyquest/internal/config"
	"pyquest/internal/logx"
	"pyquest/internal/repository"
	"pyquest/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	listCmd := flag.NewFlagSet("profiles", flag.ExitOnError)

	exportProfile := exportCmd.String("profile", "", "Profile ID to export (required)")
	exportOutput := exportCmd.String("output", "", "Output file path (default: pyquest_<profile>_YYYYMMDD_HHMMSS.json)")

	importProfile := importCmd.String("profile", "", "Profile ID to restore into (required)")
	importInput := importCmd.String("input", "", "Input file path (required)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logx.InitGlobalLogger(true)

	ctx := context.Background()
	backend, err := repository.OpenBackend(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open storage", "type", cfg.DatabaseType)
	}
	defer backend.Close()

	registry := service.NewLedgerRegistry(backend.Stores, service.LedgerConfig{MaxUsers: cfg.MaxUsers})
	backupService := service.NewBackupService(registry)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		requireFlag(exportCmd, "profile", *exportProfile)
		handleExport(ctx, backupService, *exportProfile, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		requireFlag(importCmd, "profile", *importProfile)
		requireFlag(importCmd, "input", *importInput)
		handleImport(ctx, backupService, *importProfile, *importInput, *importYes)

	case "profiles":
		listCmd.Parse(os.Args[2:])
		handleProfiles(ctx, registry)

	default:
		printUsage()
		os.Exit(1)
	}
}

func requireFlag(fs *flag.FlagSet, name, value string) {
	if value != "" {
		return
	}
	fmt.Printf("Error: -%s flag is required\n", name)
	fs.PrintDefaults()
	os.Exit(1)
}

func handleExport(ctx context.Context, backupService *service.BackupService, profileID, outputPath string) {
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("pyquest_%s_%s.json", profileID, timestamp)
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logx.Fatal(err, "Failed to create output directory", "dir", dir)
		}
	}

	logx.Info("Exporting profile", "profile", profileID, "output", outputPath)
	if err := backupService.Export(ctx, profileID, outputPath); err != nil {
		logx.Fatal(err, "Export failed")
	}

	fileInfo, err := os.Stat(outputPath)
	if err == nil {
		logx.Info("Export complete", "bytes", fileInfo.Size())
	}
}

func handleImport(ctx context.Context, backupService *service.BackupService, profileID, inputPath string, skipConfirm bool) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		logx.Fatal(err, "Input file does not exist", "input", inputPath)
	}

	if !skipConfirm {
		fmt.Printf("WARNING: This replaces every player on profile %s. Type 'yes' to confirm: ", profileID)
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			logx.Info("Import cancelled")
			return
		}
	}

	logx.Info("Importing profile", "profile", profileID, "input", inputPath)
	if err := backupService.Import(ctx, profileID, inputPath); err != nil {
		logx.Fatal(err, "Import failed")
	}
	logx.Info("Import complete!")
}

func handleProfiles(ctx context.Context, registry *service.LedgerRegistry) {
	profiles, err := registry.Profiles(ctx)
	if err != nil {
		logx.Fatal(err, "Failed to list profiles")
	}
	for _, id := range profiles {
		fmt.Println(id)
	}
}

func printUsage() {
	fmt.Println("PyQuest Profile Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup profiles                 List stored profile IDs")
	fmt.Println("  backup export [options]         Export one profile to a JSON file")
	fmt.Println("  backup import [options]         Replace one profile from a JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -profile <id>     Profile ID (required)")
	fmt.Println("  -output <file>    Output file path (default: pyquest_<profile>_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -profile <id>     Profile ID (required)")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -yes              Skip the confirmation prompt")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          sqlite, postgres, mysql, file or memory (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./pyquest.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  STORE_DIR        Directory for DB_TYPE=file (default: ./data)")
}
