// Package main generates dashboard bearer tokens for local development.
// Tokens are signed with the dev key and will NOT work against a production
// deployment.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"spamstopper/internal/jwttoken"
	id "spamstopper/pkg/domain"
)

const (
	// Dev signing key - matches config.go when APP_JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "spamstopper"
	defaultTokenTTL = 15 * time.Minute
)

func main() {
	subscriberID := flag.String("subscriber-id", "", "Subscriber ID (UUID). Generated if empty.")
	email := flag.String("email", "dev@example.com", "Email claim")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	signingKey := flag.String("signing-key", devSigningKey, "JWT signing key")
	jsonOutput := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	sid := id.NewSubscriberID()
	if *subscriberID != "" {
		parsed, err := id.ParseSubscriberID(*subscriberID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid subscriber-id UUID: %s\n", *subscriberID)
			os.Exit(1)
		}
		sid = parsed
	}

	svc := jwttoken.NewJWTService(*signingKey, defaultIssuer, *ttl)
	token, err := svc.GenerateAccessToken(context.Background(), sid, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"token":      token,
			"expires_in": ttl.String(),
			"claims": map[string]string{
				"subscriber_id": sid.String(),
				"email":         *email,
			},
			"usage": "Authorization: Bearer <token>",
		})
		return
	}

	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Subscriber ID: %s\n", sid)
	fmt.Printf("Email:         %s\n", *email)
	fmt.Printf("Expires In:    %s\n", *ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/subscribers/me")
}
