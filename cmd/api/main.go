package main

import (
	"context"
	"log"

	"github.com/Apurer/go-order-bridge/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("order bridge API failed: %v", err)
	}
}
