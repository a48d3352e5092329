package main

import (
	"context"
	"log"
	"net"

	"docqa-backend/internal/bootstrap"
	"docqa-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	addr := net.JoinHostPort("", cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
