package main

import (
	"flag" // Command line flags

	"room_rental/internal/config" // Custom import path (Config)
	"room_rental/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Structured logging
)

// Main entry point for migration
func main() {
	seed := flag.Bool("seed", false, "insert the demo dataset into an empty database")
	flag.Parse()

	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Connect(cfg) // Connect using the configured driver
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	if *seed {
		if err := db.Seed(gdb, cfg.BcryptCost); err != nil {
			logrus.Fatalf("seed failed: %v", err)
		}
	}
}
