// Command auth serves the HotelListing account API.
package main

import (
	"fmt"
	"log"

	"github.com/aussiebroadwan/hotellisting/internal/auth/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	return application.Run()
}
