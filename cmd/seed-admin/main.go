package main

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/playmatatu/tablesim/internal/admin"
	"github.com/playmatatu/tablesim/internal/config"
	"github.com/playmatatu/tablesim/internal/database"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	username := os.Getenv("OPERATOR_NAME")
	if username == "" {
		username = "operator"
		log.Printf("Using default operator name: %s", username)
	}

	token := os.Getenv("OPERATOR_TOKEN")
	if token == "" {
		token = "change-me-in-production"
		log.Printf("WARNING: Using default operator token. Set OPERATOR_TOKEN env var in production!")
	}

	roles := []string{"super_admin"}
	allowedIPs := []string{} // empty = allow from any IP
	if raw := os.Getenv("OPERATOR_ALLOWED_IPS"); raw != "" {
		for _, ip := range strings.Split(raw, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				allowedIPs = append(allowedIPs, ip)
			}
		}
	}

	if err := admin.CreateOperator(db, username, token, roles, allowedIPs); err != nil {
		log.Fatalf("Failed to create operator: %v", err)
	}

	log.Printf("Operator created/updated successfully")
	log.Printf("  Name: %s", username)
	log.Printf("  Roles: %v", roles)
	log.Printf("  Allowed IPs: %v", allowedIPs)
	log.Println("\nSend X-Operator-Name and X-Operator-Token headers to /api/v1/admin/*")
}
