package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/uzimatech/borehole-api/config"
	"github.com/uzimatech/borehole-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := getenv("SEED_ADMIN_EMAIL", "admin@uzimaborehole.com")
	password := getenv("SEED_ADMIN_PASSWORD", "changemenow")
	phone := getenv("SEED_ADMIN_PHONE", "+254700000000")
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (first_name, last_name, email, phone_number, password_hash, role, email_verified)
		VALUES ('Platform', 'Admin', $1, $2, $3, 'admin', true)
		ON CONFLICT (email) DO UPDATE SET role = 'admin'
		RETURNING id
	`, email, phone, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s\n", id, email)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
