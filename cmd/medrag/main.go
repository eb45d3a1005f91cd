// Package main is the medrag CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arogyamitra/medrag/internal/answer"
	"github.com/arogyamitra/medrag/internal/config"
	"github.com/arogyamitra/medrag/internal/embedding"
	"github.com/arogyamitra/medrag/internal/extract"
	"github.com/arogyamitra/medrag/internal/ingest"
	"github.com/arogyamitra/medrag/internal/llm"
	"github.com/arogyamitra/medrag/internal/models"
	"github.com/arogyamitra/medrag/internal/retrieval"
	"github.com/arogyamitra/medrag/internal/server"
	"github.com/arogyamitra/medrag/internal/session"
	"github.com/arogyamitra/medrag/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("medrag version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`medrag - multi-session document question answering

Usage:
  medrag server [-config path] [-debug]     start the API server
  medrag ingest -session id -file path      upload a document via the API
  medrag ask -session id <question>         ask a question via the API
  medrag status                             show server status
  medrag version                            print version`)
}

// loadConfig loads config from path, overlaying API keys from the environment
// when the file leaves them empty.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("EMBEDDING_API_KEY")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("LLM_API_KEY")
	}
	return cfg, nil
}

// components holds the wired engine for the server command.
type components struct {
	Store        *session.Store
	Ingestor     *ingest.Ingestor
	Orchestrator *answer.Orchestrator
	Embedder     embedding.Embedder
}

// initializeComponents wires the engine from config: embedder (with query
// cache), completer, store, ingestor, retriever, assembler, orchestrator.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	var embedder embedding.Embedder
	if cfg.Embedding.Provider == "mock" {
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		gateway, err := embedding.NewGateway(&cfg.Embedding, embedding.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		embedder = gateway
	}
	embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheTTL.Std())

	var completer llm.Completer
	if cfg.LLM.Provider == "mock" {
		completer = llm.NewMockCompleter("(mock completion)")
	} else {
		client, err := llm.NewClient(&cfg.LLM, llm.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		completer = client
	}

	store := session.NewStore(cfg.Embedding.Dimensions, session.WithLogger(logger))
	chunker := ingest.NewChunkerWindow(cfg.Chunking.MaxSize, cfg.Chunking.Overlap, cfg.Chunking.BoundaryWindow)
	ingestor := ingest.NewIngestor(embedder, chunker, extract.NewExtractor(), ingest.WithLogger(logger))
	retriever := retrieval.NewRetriever(embedder, &cfg.Retrieval, retrieval.WithLogger(logger))
	assembler := answer.NewAssembler(cfg.Retrieval.ContextBudget)
	orchestrator := answer.NewOrchestrator(
		store, retriever, assembler, completer, cfg.LLM.MaxTokens,
		answer.WithLogger(logger),
		answer.WithHistoryDepth(cfg.Session.HistoryDepth),
	)
	return &components{
		Store:        store,
		Ingestor:     ingestor,
		Orchestrator: orchestrator,
		Embedder:     embedder,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Embedder.Close()

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	comps.Store.StartSweeper(sweepCtx, cfg.Session.SweepInterval.Std(), cfg.Session.IdleTimeout.Std())

	srv := server.NewServer(comps.Orchestrator, comps.Ingestor, comps.Store, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	sweepCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// serverURL returns the API base URL from config, for the client subcommands.
func serverURL(configPath string) string {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return "http://localhost:8080"
	}
	return fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	sessionID := fs.String("session", "", "session id (required)")
	file := fs.String("file", "", "document to upload (required)")
	_ = fs.Parse(os.Args[2:])
	if *sessionID == "" || *file == "" {
		fs.Usage()
		os.Exit(1)
	}
	content, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Failed to read %s: %v\n", *file, err)
		os.Exit(1)
	}
	input := models.DocumentInput{
		Filename:      *file,
		ContentBase64: base64.StdEncoding.EncodeToString(content),
	}
	url := fmt.Sprintf("%s/api/v1/sessions/%s/documents", serverURL(*configPath), *sessionID)
	postJSON(url, input)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	sessionID := fs.String("session", "", "session id (required)")
	_ = fs.Parse(os.Args[2:])
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *sessionID == "" || question == "" {
		fs.Usage()
		os.Exit(1)
	}
	url := fmt.Sprintf("%s/api/v1/sessions/%s/answers", serverURL(*configPath), *sessionID)
	postJSON(url, map[string]string{"question": question})
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])
	resp, err := http.Get(serverURL(*configPath) + "/api/v1/status")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(body)))
}

// postJSON posts payload to url and prints the response body.
func postJSON(url string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Failed to encode request: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		fmt.Printf("Server returned %d: %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	fmt.Println(strings.TrimSpace(string(body)))
}
