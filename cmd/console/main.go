package main

import (
	"log"

	"github.com/skyshow-tech/fleet_dashboard/internal/app"
	"github.com/skyshow-tech/fleet_dashboard/internal/config"
)

func main() {
	log.Println("starting fleet console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal("dashboard_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
