package main

import (
	"log"

	"github.com/go-portalgate/portalgate/internal/bootstrap"
	"github.com/go-portalgate/portalgate/internal/config"
)

func main() {
	cfg := config.Load()

	if err := bootstrap.Run(cfg); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
}
