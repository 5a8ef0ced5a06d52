package main

import (
	"log"
	"os"

	"ai-specforge-be/internal/model"
	"ai-specforge-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("🚀 Starting Authoritative GORM Migration")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	color.Yellow("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	color.Yellow("Step 2: Running AutoMigrate for 3 Tables...")

	models := []interface{}{
		&model.Analysis{},
		&model.KnowledgeChunk{},
		&model.RevisionMessage{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Migration failed: %v", err)
		os.Exit(1)
	}

	// 5. Post-Migration: the ANN index for similarity-based reuse lookups.
	// AutoMigrate cannot express HNSW indexes, so it lives here.
	color.Yellow("Step 3: Creating vector index...")
	annSQL := `CREATE INDEX IF NOT EXISTS idx_analyses_vector_signature
		ON analyses USING hnsw (vector_signature vector_cosine_ops);`
	if err := db.Exec(annSQL).Error; err != nil {
		log.Printf("Warn: Failed to create vector index: %v. Similarity search will fall back to sequential scan.", err)
	}

	color.Green("✅ Migration finished")
}
