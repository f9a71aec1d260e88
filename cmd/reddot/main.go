package main

import (
	"log"

	"reddot/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ reddot failed to start: %v", err)
	}
}
