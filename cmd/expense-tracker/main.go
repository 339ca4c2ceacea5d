package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/expense-tracker/internal/expense"
	"github.com/zombor/expense-tracker/internal/spreadsheet"
	"github.com/zombor/expense-tracker/internal/telegram"
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

	const defaultPort = 8080

	fs := ff.NewFlagSet("expense-tracker")
	var (
		port            = fs.IntLong("port", defaultPort, "HTTP server port (or set PORT env var)")
		botToken        = fs.StringLong("bot-token", "", "Telegram bot token (or set BOT_TOKEN env var)")
		googleCreds     = fs.StringLong("google-creds", "", "Google service account JSON (or set GOOGLE_CREDS env var)")
		googleCredsFile = fs.StringLong("google-creds-file", "", "Path to a Google service account JSON file")
		tableName       = fs.StringLong("table-name", "Expenses", "Spreadsheet name to open or create")
		tableFragment   = fs.StringLong("table-fragment", "expenses", "Use the first spreadsheet whose name contains this text when the exact name is missing (empty disables)")
		schemaName      = fs.StringLong("schema", expense.SchemaBasic.Name, "Record schema: 'basic' or 'place'")
		language        = fs.StringLong("language", string(expense.English), "Reply language: 'en' or 'es'")
		remoteTimeout   = fs.DurationLong("remote-timeout", expense.DefaultRemoteTimeout, "Timeout for each Google Sheets call")
		environment     = fs.StringLong("environment", "production", "Environment name reported by /status")
		telegramAPIURL  = fs.StringLong("telegram-api-url", "", "Override the Telegram Bot API endpoint")
		debug           = fs.BoolLong("debug", "Enable debug logging")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_TRACKER"),
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

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Bare variable names used by earlier deployments
	if *botToken == "" {
		*botToken = os.Getenv("BOT_TOKEN")
	}
	if *googleCreds == "" {
		*googleCreds = os.Getenv("GOOGLE_CREDS")
	}
	if env := os.Getenv("PORT"); env != "" && *port == defaultPort {
		p, err := strconv.Atoi(env)
		if err != nil {
			slog.Error("Invalid PORT environment variable", "value", env, "error", err)
			os.Exit(1)
		}
		*port = p
	}

	if *botToken == "" {
		slog.Error("Telegram bot token is required. Set --bot-token flag or BOT_TOKEN environment variable")
		os.Exit(1)
	}

	credentials, err := loadCredentials(*googleCreds, *googleCredsFile)
	if err != nil {
		slog.Error("Failed to load Google credentials", "error", err)
		os.Exit(1)
	}

	schema, err := expense.SchemaByName(*schemaName)
	if err != nil {
		slog.Error("Invalid schema", "error", err)
		os.Exit(1)
	}
	lang, err := expense.LanguageByName(*language)
	if err != nil {
		slog.Error("Invalid language", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize backend
	slog.Info("Initializing Google Sheets client...")
	backend, err := spreadsheet.New(ctx, credentials)
	if err != nil {
		slog.Error("Failed to initialize Google Sheets", "error", err)
		os.Exit(1)
	}

	// Initialize service
	tables := expense.NewTableManager(backend, expense.TableConfig{
		Name:     *tableName,
		Fragment: *tableFragment,
		Schema:   schema,
		Timeout:  *remoteTimeout,
	})
	service := expense.NewServiceWithDeps(expense.NewParser(schema), tables, *remoteTimeout)

	// Best effort: the service provisions again on first use
	if _, err := tables.EnsureReady(ctx); err != nil {
		if expense.IsQuotaExceeded(err) {
			slog.Warn("Google Drive quota exceeded. Starting anyway; free up space or create the spreadsheet manually", "table", *tableName)
		} else {
			slog.Warn("Could not set up Google Sheets initially. Will retry when expenses arrive", "error", err)
		}
	}

	// Initialize chat bot
	tgBot, err := telegram.New(telegram.Config{
		Token:     *botToken,
		Debug:     *debug,
		ServerURL: *telegramAPIURL,
	}, telegram.NewResponder(service, lang))
	if err != nil {
		slog.Error("Failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}

	// Initialize server
	server := expense.NewServer(service, expense.ServerConfig{
		Environment:  *environment,
		Language:     lang,
		BotConnected: tgBot.Connected,
	})

	// Start both listeners in goroutines
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
	go func() {
		if err := tgBot.Start(ctx); err != nil {
			slog.Error("Telegram bot error", "error", err)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "schema", schema.Name, "table", *tableName)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
}

// loadCredentials returns the service account JSON from the inline value or the file
func loadCredentials(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, errors.New("google credentials are required. Set --google-creds, --google-creds-file or GOOGLE_CREDS")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	return data, nil
}
