// Copyright (c) 2026 Skyshow Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/skyshow-tech/fleet_dashboard/internal/app"
	"github.com/skyshow-tech/fleet_dashboard/internal/config"
)

func main() {
	log.Println("starting origin producer (GPS -> MQTT)")

	// Load configuration
	if err := config.InitGlobal("dashboard_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunOriginProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
