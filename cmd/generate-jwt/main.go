package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"wallet-backend/internal/config"
	"wallet-backend/internal/handlers"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to admin.tokenTtlMinutes)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.Admin.TokenTTLMins) * time.Minute
	}

	tokenString, err := handlers.GenerateAdminJWTToken([]byte(cfg.Admin.JWTSecret), cfg.Admin.Username, lifetime)
	if err != nil {
		fmt.Printf("Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("============================================================")
	fmt.Println("Admin JWT Token Generated")
	fmt.Println("============================================================")
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(tokenString)
	fmt.Println()
	fmt.Printf("  Username: %s\n", cfg.Admin.Username)
	fmt.Printf("  Expires:  %s\n", time.Now().Add(lifetime).Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("curl -H 'Authorization: Bearer %s' http://%s/api/transfer\n", tokenString, cfg.Addr())
}
