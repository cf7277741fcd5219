package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iamanos/onboard/internal/api"
	"github.com/iamanos/onboard/internal/auth"
	"github.com/iamanos/onboard/internal/catalog"
	"github.com/iamanos/onboard/internal/chat"
	"github.com/iamanos/onboard/internal/flow"
	"github.com/iamanos/onboard/internal/genai"
	"github.com/iamanos/onboard/internal/store"
	"github.com/iamanos/onboard/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for onboarding state data
	DefaultStateDir = "/var/lib/onboard"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "onboard.db"
)

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	OpenAIModel string
	TokenSecret string
	TokenTTL    time.Duration
	APIAddr     string
	Debug       bool
}

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.Debug)

	apiAddr := flag.String("api-addr", config.APIAddr, "API server address (overrides $ONBOARD_API_ADDR)")
	dbDSN := flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)")
	stateDir := flag.String("state-dir", config.StateDir, "state directory for onboarding data (overrides $ONBOARD_STATE_DIR)")
	openaiKey := flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)")
	tokenSecret := flag.String("token-secret", config.TokenSecret, "JWT signing secret (overrides $ONBOARD_TOKEN_SECRET)")
	flag.Parse()

	if *dbDSN == "" {
		*dbDSN = filepath.Join(*stateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", *dbDSN)
	}

	st, err := openStore(*dbDSN)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	issuer, err := auth.NewTokenIssuer(*tokenSecret, config.TokenTTL)
	if err != nil {
		slog.Error("Failed to create token issuer", "error", err)
		os.Exit(1)
	}

	var genaiOpts []genai.Option
	if *openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*openaiKey))
	}
	if config.OpenAIModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(config.OpenAIModel))
	}
	genaiClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		slog.Error("Failed to create GenAI client", "error", err)
		os.Exit(1)
	}
	chatSvc := chat.NewOpenAIService(genaiClient)

	engine, err := flow.NewEngine(catalog.Default(), chatSvc, st)
	if err != nil {
		slog.Error("Failed to create conversation engine", "error", err)
		os.Exit(1)
	}

	server, err := api.NewServer(st, issuer, engine, flow.NewSessionManager(), chatSvc, api.WithAddr(*apiAddr))
	if err != nil {
		slog.Error("Failed to create API server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping onboarding service", "api_addr", *apiAddr, "dsn_type", store.DetectDSNType(*dbDSN))
	if err := server.Run(ctx); err != nil {
		slog.Error("Onboarding service failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Onboarding service exited successfully")
}

// initializeLogger sets up structured logging
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("ONBOARD_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		TokenSecret: os.Getenv("ONBOARD_TOKEN_SECRET"),
		TokenTTL:    util.ParseDurationEnv("ONBOARD_TOKEN_TTL", auth.DefaultTokenTTL),
		APIAddr:     os.Getenv("ONBOARD_API_ADDR"),
		Debug:       util.ParseBoolEnv("ONBOARD_DEBUG", false),
	}
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}
	if config.APIAddr == "" {
		config.APIAddr = api.DefaultAddr
	}
	return config
}

// openStore selects the storage backend from the DSN shape.
func openStore(dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}
