package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"finaudit/pkg/api/analysis"
	"finaudit/pkg/api/chat"
	"finaudit/pkg/api/config"
	"finaudit/pkg/core/agent"
	"finaudit/pkg/core/assistant"
	"finaudit/pkg/core/dart"
	"finaudit/pkg/core/deliberation"
	"finaudit/pkg/core/pipeline"
	"finaudit/pkg/core/prompt"
	"finaudit/pkg/core/store"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

var agentMgr *agent.Manager

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize Prompt Library
	// Determine resources path (relative to executable or working directory)
	resourcesPath := "resources"
	if _, err := os.Stat(resourcesPath); os.IsNotExist(err) {
		// Try from executable directory
		exePath, _ := os.Executable()
		resourcesPath = filepath.Join(filepath.Dir(exePath), "resources")
	}
	if err := prompt.LoadFromDirectory(resourcesPath); err != nil {
		fmt.Printf("[WARNING] Failed to load prompt library: %v\n", err)
		fmt.Println("  Falling back to hardcoded prompts")
	} else {
		fmt.Printf("[PROMPT] Loaded %d prompts from %s\n", prompt.Get().Count(), resourcesPath)
	}

	// Initialize manager from config
	configData, _ := ioutil.ReadFile("config/models.yaml")
	var agentCfg agent.Config
	yaml.Unmarshal(configData, &agentCfg)
	agentMgr = agent.NewManager(agentCfg)

	// Deliberation roster; the built-in three personas when no file exists
	roster := deliberation.DefaultRoster()
	if loaded, err := deliberation.LoadRoster("config/personas.yaml"); err != nil {
		fmt.Printf("[WARNING] Failed to load persona roster: %v\n", err)
		fmt.Println("  Falling back to default roster")
	} else {
		roster = loaded
	}

	// DART client
	apiKey := os.Getenv("DART_API_KEY")
	if apiKey == "" {
		fmt.Println("[WARNING] DART_API_KEY is not set; filing fetches will fail")
	}
	dartClient := dart.NewClient(apiKey)

	// Context cache with background TTL eviction
	cache := store.NewContextCache()
	cache.StartJanitor(context.Background(), time.Hour, store.DefaultTTL)

	// Optional transcript archive (requires DATABASE_URL)
	var archive *store.TranscriptArchive
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(context.Background()); err != nil {
			fmt.Printf("[WARNING] Database init failed: %v\n", err)
			fmt.Println("  Continuing without transcript archive")
		} else {
			archive = store.NewTranscriptArchive(store.GetPool())
			fmt.Println("[STORE] Transcript archive enabled")
			defer store.Close()
		}
	}

	// Analysis pipeline
	runner := pipeline.NewRunner(dartClient, agentMgr, cache)
	runner.SetRoster(roster)
	if archive != nil {
		runner.SetArchive(archive)
	}

	// Conversational assistant
	asst := assistant.New(cache, runner, agentMgr)

	// Config endpoints
	configHandler := config.NewHandler(agentMgr)
	http.HandleFunc("/api/config", configHandler.HandleConfig)
	http.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	// Analysis endpoints
	analysisHandler := analysis.NewHandler(runner, cache)
	http.HandleFunc("/api/analysis/run", analysisHandler.HandleRun)
	http.HandleFunc("/api/analysis/status", analysisHandler.HandleStatus)
	http.HandleFunc("/api/analysis/context", analysisHandler.HandleContext)
	http.HandleFunc("/api/analysis/entities", analysisHandler.HandleEntities)

	// Chat endpoints
	chatHandler := chat.NewHandler(asst)
	http.HandleFunc("/api/chat/query", chatHandler.HandleQuery)
	http.HandleFunc("/api/chat/history", chatHandler.HandleHistory)
	http.HandleFunc("/api/chat/clear", chatHandler.HandleClear)

	fmt.Println("API server starting on :8080...")
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")
	fmt.Println("  - POST /api/analysis/run")
	fmt.Println("  - GET  /api/analysis/status")
	fmt.Println("  - GET  /api/analysis/context")
	fmt.Println("  - GET  /api/analysis/entities")
	fmt.Println("  - POST /api/chat/query")
	fmt.Println("  - GET  /api/chat/history")
	fmt.Println("  - POST /api/chat/clear")

	// Use log.Fatal to print error and exit with code 1 if it fails (e.g. port in use)
	if err := http.ListenAndServe(":8080", nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
