package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mo-amir99/lms-progress-go/pkg/config"
	"github.com/mo-amir99/lms-progress-go/pkg/database"
	"github.com/mo-amir99/lms-progress-go/pkg/logger"
)

const confirmPhrase = "DROP PROGRESS TABLES"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to drop tables in production")
	}

	appLogger, err := logger.New(cfg.LogLevel, "")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	cfg.Database.RunMigrations = false
	db, err := database.ConnectWithRetry(context.Background(), cfg.Database, appLogger, 0, time.Second)
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = database.Close(db, appLogger) }()

	fmt.Println("\nWARNING: this drops every catalog, enrollment and progress table.")
	fmt.Printf("Type '%s' to confirm: ", confirmPhrase)

	confirmation, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	if strings.TrimSpace(confirmation) != confirmPhrase {
		fmt.Println("Operation cancelled. Database unchanged.")
		return
	}

	dropped, err := database.DropAll(db, appLogger)
	if err != nil {
		appLogger.Error("Failed to drop tables", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Dropped %d tables. Run scripts/migrate to recreate them.\n", dropped)
}
