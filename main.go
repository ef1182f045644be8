package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"luckydraw/cmd"
	"luckydraw/config"
	"luckydraw/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatal("Migration error: ", err)
			}
			return
		case "token":
			if len(os.Args) < 3 {
				log.Fatal("usage: luckydraw token <admin_id>")
			}
			if err := cmd.IssueToken(os.Stdout, os.Args[2]); err != nil {
				log.Fatal("Token error: ", err)
			}
			return
		case "reconcile":
			if err := cmd.Reconcile(context.Background(), os.Stdout); err != nil {
				if errors.Is(err, cmd.ErrDiscrepancies) {
					os.Exit(1)
				}
				log.Fatal("Reconcile error: ", err)
			}
			return
		}
	}

	// Normal bot operation
	cmd.SetupLogging(config.Get())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: luckydraw migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
