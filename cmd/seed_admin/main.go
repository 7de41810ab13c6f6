// Seeds (or resets) an admin dashboard account and migrates the admin
// tables. Usage:
//
//	go run ./cmd/seed_admin -username admin -password <secret>
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/implementation"
	"ai-companion-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	username := flag.String("username", "admin", "admin account username")
	password := flag.String("password", "", "admin account password")
	flag.Parse()

	if *password == "" {
		color.Red("✗ -password is required")
		os.Exit(1)
	}

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Postgres.Connection)
	if err != nil {
		color.Red("✗ Failed to connect to Postgres: %v", err)
		os.Exit(1)
	}

	color.Cyan("Migrating admin tables...")
	if err := db.AutoMigrate(&model.AdminAccount{}, &model.SystemLog{}); err != nil {
		color.Red("✗ Migration failed: %v", err)
		os.Exit(1)
	}
	color.Green("✓ Tables ready")

	repo := implementation.NewAdminRepository(db)
	ctx := context.Background()

	existing, err := repo.FindAccountByUsername(ctx, *username)
	if err != nil {
		color.Red("✗ Lookup failed: %v", err)
		os.Exit(1)
	}
	if existing != nil {
		color.Yellow("Account %q already exists, leaving it untouched", *username)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		color.Red("✗ Hashing failed: %v", err)
		os.Exit(1)
	}

	account := &entity.AdminAccount{
		Id:           uuid.New(),
		Username:     *username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := repo.CreateAccount(ctx, account); err != nil {
		color.Red("✗ Create failed: %v", err)
		os.Exit(1)
	}

	color.Green("✓ Admin account %q created", *username)
}
