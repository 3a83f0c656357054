package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/teampulse/teampulse/internal/analytics"
	"github.com/teampulse/teampulse/internal/config"
	"github.com/teampulse/teampulse/internal/db"
	"github.com/teampulse/teampulse/internal/importer"
	"github.com/teampulse/teampulse/internal/server"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const watcherDebounce = 500 * time.Millisecond

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "import":
			runImport(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("teampulse %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runServe(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`teampulse %s - cycle-based team target analytics

Tracks point-valued team activities against weekly targets, archives
elapsed cycles, and serves progress overviews and timelines over a
local REST API.

Usage:
  teampulse [flags]             Start the server (default command)
  teampulse serve [flags]       Start the server (explicit)
  teampulse import <file>...    Import JSONL activity exports
  teampulse version             Show version information
  teampulse help                Show this help

Server flags:
  -host string        Host to bind to (default "127.0.0.1")
  -port int           Port to listen on (default 8080)
  -import-dir string  Directory to watch for JSONL activity exports

Environment variables:
  TEAMPULSE_HOST        Host to bind to
  TEAMPULSE_PORT        Port to listen on
  TEAMPULSE_IMPORT_DIR  Export drop directory
  TEAMPULSE_DATA_DIR    Data directory (database, config)

Data is stored in ~/.teampulse/ by default.
`, version)
}

func runServe(args []string) {
	cfg := mustLoadConfig(args)
	database := mustOpenDB(cfg)
	defer database.Close()

	engine := analytics.New(database)

	stopWatcher := startDropWatcher(cfg, database)
	defer stopWatcher()

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		fmt.Printf("Port %d in use, using %d\n", cfg.Port, port)
	}
	cfg.Port = port

	srv := server.New(cfg, database, engine,
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	fmt.Printf("teampulse %s listening at http://%s:%d\n",
		version, cfg.Host, cfg.Port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: teampulse import <file>...\n")
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadMinimal()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	database := mustOpenDB(cfg)
	defer database.Close()

	res, err := importer.ImportFiles(
		context.Background(), database, fs.Args(),
	)
	fmt.Printf("Imported %d activities (%d lines skipped)\n",
		res.Imported, res.Skipped)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
}

func mustLoadConfig(args []string) config.Config {
	fs := flag.NewFlagSet("teampulse", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: teampulse [serve] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	config.RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	return cfg
}

func mustOpenDB(cfg config.Config) *db.DB {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	return database
}

// startDropWatcher wires the import drop directory, if configured.
// Returns a stop function; a no-op when no directory is set.
func startDropWatcher(cfg config.Config, database *db.DB) func() {
	if cfg.ImportDir == "" {
		return func() {}
	}

	w, err := importer.NewWatcher(
		cfg.ImportDir, watcherDebounce,
		func(paths []string) {
			res, err := importer.ImportFiles(
				context.Background(), database, paths,
			)
			if err != nil {
				log.Printf("import: %v", err)
			}
			log.Printf("imported %d activities (%d skipped) from %d file(s)",
				res.Imported, res.Skipped, len(paths))
		},
	)
	if err != nil {
		log.Fatalf("watching import dir: %v", err)
	}
	w.Start()
	fmt.Printf("Watching %s for activity exports\n", cfg.ImportDir)
	return w.Stop
}
