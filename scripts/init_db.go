//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"mortgage-qualification-engine/internal/config"
)

func main() {
	fmt.Println("=== Dexter Catalog Initialization ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	databaseURL := cfg.DatabaseURL()

	// Connect to the default 'postgres' database first to create ours
	postgresURL := strings.Replace(databaseURL, "/"+cfg.DBName, "/postgres", 1)
	fmt.Println("📡 Connecting to PostgreSQL server...")

	adminConn, err := pgx.Connect(ctx, postgresURL)
	if err != nil {
		fmt.Printf("❌ Failed to connect to PostgreSQL: %v\n", err)
		os.Exit(1)
	}

	var exists bool
	err = adminConn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBName).Scan(&exists)
	if err != nil {
		fmt.Printf("❌ Failed to check database existence: %v\n", err)
		adminConn.Close(ctx)
		os.Exit(1)
	}

	if !exists {
		fmt.Printf("📦 Creating '%s' database...\n", cfg.DBName)
		_, err = adminConn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{cfg.DBName}.Sanitize())
		if err != nil {
			fmt.Printf("❌ Failed to create database: %v\n", err)
			adminConn.Close(ctx)
			os.Exit(1)
		}
		fmt.Printf("✅ Database '%s' created!\n", cfg.DBName)
	} else {
		fmt.Printf("✅ Database '%s' already exists\n", cfg.DBName)
	}
	adminConn.Close(ctx)

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	sqlBytes, err := os.ReadFile("scripts/init_database.sql")
	if err != nil {
		fmt.Printf("❌ Failed to read SQL file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🚀 Executing catalog schema...")
	if _, err := conn.Exec(ctx, string(sqlBytes)); err != nil {
		fmt.Printf("❌ Failed to execute SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Schema executed successfully!")
	fmt.Println()

	rows, err := conn.Query(ctx, "SELECT bank, package_name, property_type, min_loan_size, category FROM mortgage_packages ORDER BY min_loan_size DESC, bank")
	if err != nil {
		fmt.Printf("⚠️  Warning: Could not fetch packages: %v\n", err)
	} else {
		defer rows.Close()
		fmt.Println("   📋 Mortgage Packages:")
		fmt.Println("   ─────────────────────────────────────────────────────────")
		for rows.Next() {
			var bank, name, propertyType, category string
			var minLoan float64
			if err := rows.Scan(&bank, &name, &propertyType, &minLoan, &category); err == nil {
				fmt.Printf("   %s %s (%s, %s) min S$%.0f\n", bank, name, propertyType, category, minLoan)
			}
		}
		fmt.Println("   ─────────────────────────────────────────────────────────")
	}

	fmt.Println()
	fmt.Println("🎉 Catalog initialization completed!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Check connectivity: go run scripts/test_connection.go")
	fmt.Println("  2. Start the API: go run ./cmd/server")
}
