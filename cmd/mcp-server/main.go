// Package main provides the MCP server entry point for Pagecast content.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pagecast/pagecast-go/internal/inference"
	"github.com/pagecast/pagecast-go/internal/logging"
	mcpserver "github.com/pagecast/pagecast-go/internal/mcp"
	"github.com/pagecast/pagecast-go/internal/sdk"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := logging.Install(logging.Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "console"),
	})

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	project := os.Getenv("PAGECAST_PROJECT")
	if project == "" {
		log.Fatal("PAGECAST_PROJECT environment variable not set")
	}
	port := getEnv("PORT", "8080")

	client, err := sdk.New(sdk.Options{
		Project:         project,
		BaseURL:         os.Getenv("PAGECAST_BASE_URL"),
		MediaBaseURL:    os.Getenv("PAGECAST_MEDIA_URL"),
		Revision:        os.Getenv("PAGECAST_REVISION"),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 0),
		CacheMaxAge:     time.Duration(getEnvInt("CACHE_MAX_AGE_SECONDS", 0)) * time.Second,
		Inferencer:      buildInferencer(),
		Logger:          logger,
	})
	if err != nil {
		log.Fatalf("failed to create SDK: %v", err)
	}

	server := mcpserver.NewServer(&mcpserver.Config{SDK: client})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(client))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	// Check if running in server mode (HTTP) or stdio mode (local development)
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run MCP over stdin/stdout, health endpoint in background
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting Pagecast Content MCP Server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}

// buildInferencer wires the embedding collaborator from the environment.
// Vector search modes stay unavailable when neither service is configured.
func buildInferencer() inference.Inferencer {
	var clip inference.Inferencer
	if url := os.Getenv("PAGECAST_INFERENCE_URL"); url != "" {
		clip = inference.NewHTTPInferencer(url, os.Getenv("PAGECAST_INFERENCE_TOKEN"))
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return inference.NewOpenAIInferencer("", clip)
	}
	return clip
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
