// Command admin is an operator CLI that talks straight to storage:
// banning, warnings, pending reports and the stats snapshot.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"randomchat/backend/internal/moderation"
	"randomchat/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage: admin <ban|unban|warn|reports|stats> [anon_id]")
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()

	// Only the storage settings are needed here; the CLI does not touch
	// the bot credentials, so the full config validation is skipped.
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN is required")
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	store := storage.NewStorageService(db, rdb)
	svc := moderation.NewService(store, store, store, store, store, 3)
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "ban":
		anonID := requireArg()
		if err := svc.Ban(ctx, anonID); err != nil {
			log.Fatalf("ban failed: %v", err)
		}
		fmt.Printf("banned %s\n", anonID)

	case "unban":
		anonID := requireArg()
		if err := svc.Unban(ctx, anonID); err != nil {
			log.Fatalf("unban failed: %v", err)
		}
		fmt.Printf("unbanned %s\n", anonID)

	case "warn":
		anonID := requireArg()
		count, err := svc.Warn(ctx, anonID)
		if err != nil {
			log.Fatalf("warn failed: %v", err)
		}
		fmt.Printf("warned %s (%d warnings)\n", anonID, count)

	case "reports":
		reports, err := svc.PendingReports(ctx, 50)
		if err != nil {
			log.Fatalf("report listing failed: %v", err)
		}
		if len(reports) == 0 {
			fmt.Println("no pending reports")
			return
		}
		for _, r := range reports {
			fmt.Printf("%s  [%s]  %s -> %s  session=%s  %s\n",
				r.ReportID, r.Severity, r.ReporterAnonID, r.ReportedAnonID, r.SessionID, r.Reason)
		}

	case "stats":
		stats, err := svc.Snapshot(ctx)
		if err != nil {
			log.Fatalf("stats failed: %v", err)
		}
		fmt.Printf("users:            %d (banned %d, active today %d)\n", stats.TotalUsers, stats.BannedUsers, stats.ActiveToday)
		fmt.Printf("sessions:         %d total, %d active\n", stats.TotalSessions, stats.ActiveSessions)
		fmt.Printf("reports:          %d pending of %d\n", stats.PendingReports, stats.TotalReports)
		fmt.Printf("monetize:         %d unlocked, %d due\n", stats.MonetizeCurrent, stats.MonetizeRequired)

	default:
		usage()
	}
}

func requireArg() string {
	if len(os.Args) != 3 {
		usage()
	}
	return os.Args[2]
}
