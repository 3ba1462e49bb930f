package main

import (
	"log"
	"net/http"

	"gmapscleaner/internal/config"
	"gmapscleaner/internal/store"
	"gmapscleaner/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.APIKey() == "" {
		log.Fatalf("no API key configured for provider '%s' (set %s)", cfg.LLMProvider, keyEnvName(cfg.LLMProvider))
	}

	var st *store.Store
	if cfg.CacheDBPath != "" {
		st, err = store.Open(cfg.CacheDBPath)
		if err != nil {
			log.Fatalf("opening cache db %s: %v", cfg.CacheDBPath, err)
		}
		defer st.Close()
	}

	server := web.New(cfg, st)

	log.Printf("gmaps-cleaner-web listening addr=%s provider=%s model=%s", cfg.WebAddr, cfg.LLMProvider, cfg.LLMModel)
	if err := http.ListenAndServe(cfg.WebAddr, server.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func keyEnvName(provider string) string {
	if provider == "anthropic" {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}
