// Command migrate applies the embedded goose migrations to Postgres.
//
//	migrate [-dsn DSN] up|down|status
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/fitrank/fitrank-api/internal/database"
	"github.com/fitrank/fitrank-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"))

	dsn := flag.String("dsn", os.Getenv("POSTGRES_DSN"), "Postgres connection string")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] up|down|status\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *dsn == "" {
		logger.Fatalf("POSTGRES_DSN (or -dsn) is required")
	}
	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	db, err := database.OpenSQL(*dsn)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch cmd {
	case "up":
		err = database.MigrateUp(ctx, db)
	case "down":
		err = database.MigrateDown(ctx, db)
	case "status":
		err = database.MigrationStatus(ctx, db)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("migrate %s: %v", cmd, err)
	}
	logger.Infof("migrate %s: done", cmd)
}
