package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"filemind/app/assistant"
	"filemind/app/clients"
	"filemind/app/configs"
	"filemind/app/files"
	"filemind/app/memory"
	"filemind/app/models"
	"filemind/app/research"
	"filemind/app/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	var cfg *configs.Config
	var err error
	if *configPath != "" {
		cfg, err = configs.Load(*configPath)
	} else {
		cfg = configs.Default()
	}
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid config: %v", err)
	}

	manager, err := files.NewManager(cfg.Files.BaseDir)
	if err != nil {
		log.Fatalf("❌ Failed to set up base directory: %v", err)
	}
	log.Printf("📂 Managing files under %s\n", manager.BasePath())

	model := models.NewLLMClient(cfg.Model.BaseURL, cfg.Model.ChatModel, cfg.Model.EmbeddingsModel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := chooseStore(ctx, cfg, model)

	exchanges, err := memory.NewExchangeLog(cfg.Memory.DBPath)
	if err != nil {
		log.Printf("⚠️ Exchange log unavailable: %v", err)
	} else {
		defer exchanges.Close()
	}

	asst := assistant.New(model, manager, store, exchanges)
	asst.SetHistorySize(cfg.Memory.HistorySize)
	srv := server.New(cfg, asst, manager, research.New(), model)

	registry := clients.NewRegistry()
	if cfg.Discord.Enabled {
		dc, err := clients.NewDiscordClient(cfg.Discord)
		if err != nil {
			log.Printf("⚠️ Discord client setup failed: %v", err)
		} else if err := registry.Register(dc, asst); err != nil {
			log.Printf("⚠️ Discord client start failed: %v", err)
		}
	}
	defer registry.CloseAll()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("🛑 Shutting down...")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}

// chooseStore probes the embeddings endpoint and falls back to in-process
// word matching when embeddings or qdrant are unavailable.
func chooseStore(ctx context.Context, cfg *configs.Config, model models.Interface) memory.Store {
	if cfg.Model.EmbeddingsModel != "" {
		if _, err := model.EmbedText(ctx, "test"); err == nil {
			vs, err := memory.NewVectorStore(cfg.Memory.QdrantHost, cfg.Memory.QdrantPort, cfg.Memory.Collection, model)
			if err == nil {
				if err = vs.Init(ctx); err == nil {
					log.Println("🧠 Vector memory enabled")
					return vs
				}
			}
			log.Printf("⚠️ Vector store unavailable: %v", err)
		} else {
			log.Printf("⚠️ Embeddings unavailable: %v", err)
		}
	}
	log.Println("🧠 Using fallback memory with text matching")
	return memory.NewListStore(cfg.Memory.StoreCap)
}
