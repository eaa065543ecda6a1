//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"mortgage-qualification-engine/internal/config"
	"mortgage-qualification-engine/internal/services/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🔍 Testing Dexter connections...")
	fmt.Println()

	fmt.Println("1️⃣  Checking Environment Variables:")
	checkEnvVar("GEMINI_API_KEY")
	checkEnvVar("REDIS_ADDR")
	checkEnvVar("CATALOG_BUCKET")
	checkEnvVar("SES_SENDER_EMAIL")
	checkEnvVar("ADVISER_EMAILS")
	checkEnvVar("HANDOVER_WEBHOOK_URL")
	fmt.Println()

	fmt.Println("2️⃣  Testing Database Connection:")
	testDatabaseConnection(cfg)
	fmt.Println()

	fmt.Println("3️⃣  Testing Redis Connection:")
	testRedisConnection(cfg)
	fmt.Println()

	fmt.Println("✅ Connection tests complete!")
}

func checkEnvVar(name string) {
	value := os.Getenv(name)
	if value == "" {
		fmt.Printf("   ❌ %s: NOT SET\n", name)
		return
	}
	masked := value
	if len(value) > 8 && name == "GEMINI_API_KEY" {
		masked = value[:4] + "..." + value[len(value)-4:]
	}
	fmt.Printf("   ✅ %s: %s\n", name, masked)
}

func testDatabaseConnection(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		fmt.Printf("   ❌ Database connection failed: %v\n", err)
		return
	}
	defer conn.Close(ctx)

	var count int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM mortgage_packages").Scan(&count); err != nil {
		fmt.Printf("   ⚠️  Connected, but catalog query failed: %v\n", err)
		return
	}
	fmt.Printf("   ✅ Database connection successful! %d packages in catalog\n", count)
}

func testRedisConnection(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := session.NewRedisStore(session.NewRedisClient(cfg), cfg.SessionTTL)
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		fmt.Printf("   ❌ Redis connection failed: %v\n", err)
		return
	}
	fmt.Printf("   ✅ Redis reachable at %s\n", cfg.RedisAddr)
}
