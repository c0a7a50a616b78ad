package main

import (
	"context"
	"log"

	"github.com/meganoshop/backend/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("api: %v", err)
	}
}
