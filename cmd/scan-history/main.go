package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.etcd.io/bbolt"

	"github.com/zombor/scan-history/internal/auth"
	"github.com/zombor/scan-history/internal/scan"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("scan-history")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "scan-history.db", "Database file path")
		secret      = fs.StringLong("token-secret", "", "Session token signing secret (or set SCAN_HISTORY_TOKEN_SECRET env var)")
		tokenTTL    = fs.DurationLong("token-ttl", 24*time.Hour, "Session token lifetime")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SCAN_HISTORY"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *secret == "" {
		slog.Error("Token secret is required. Set --token-secret flag or SCAN_HISTORY_TOKEN_SECRET environment variable")
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := bbolt.Open(*dbPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	scanDB, err := scan.NewBoltDB(db)
	if err != nil {
		slog.Error("Failed to initialize scan storage", "error", err)
		os.Exit(1)
	}

	userDB, err := auth.NewBoltUserDB(db)
	if err != nil {
		slog.Error("Failed to initialize user storage", "error", err)
		os.Exit(1)
	}

	// Initialize services
	tokens := auth.NewService(userDB, *secret, *tokenTTL)
	scanService := scan.NewService(scanDB)

	// Initialize server
	server := scan.NewServer(scanService, tokens)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
