// Package main generates access tokens for local testing of the registro API.
// Tokens are signed with the dev key and will NOT work in production.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "registro/internal/jwt_token"
	id "registro/pkg/domain"

	"github.com/google/uuid"
)

const (
	// Matches config.go when JWT_SIGNING_KEY is not set.
	devSigningKey   = "dev-secret-key-change-in-production"
	defaultIssuer   = "registro"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string         `json:"token"`
	ExpiresIn string         `json:"expires_in"`
	Claims    map[string]any `json:"claims"`
}

func main() {
	fs := flag.NewFlagSet("tokengen", flag.ExitOnError)
	userID := fs.String("user-id", "", "User ID (UUID). Generated if empty.")
	role := fs.String("role", string(id.RoleAdmin), "Role: admin, editor or lector")
	key := fs.String("key", envOr("JWT_SIGNING_KEY", devSigningKey), "HS256 signing key")
	issuer := fs.String("issuer", envOr("JWT_ISSUER", defaultIssuer), "Token issuer")
	ttl := fs.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	r, err := id.ParseRole(*role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid role %q (want admin, editor or lector)\n", *role)
		os.Exit(1)
	}
	uid := parseOrGenerateUUID(*userID)

	svc := jwttoken.NewJWTService(*key, *issuer, *ttl)
	token, jti, err := svc.GenerateAccessToken(context.Background(), uid, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		printJSON(tokenOutput{
			Token:     token,
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"user_id": uid.String(),
				"role":    r.String(),
				"jti":     jti,
			},
		})
		return
	}

	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Expires In: %s\n", *ttl)
	fmt.Printf("User ID:    %s\n", uid)
	fmt.Printf("Role:       %s\n", r)
	fmt.Printf("JTI:        %s\n", jti)
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/api/general")
	fmt.Println()
	fmt.Println("Note: the server also checks the user is active, so the user id must exist.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseOrGenerateUUID(input string) id.UserID {
	if input == "" {
		return id.UserID(uuid.New())
	}
	parsed, err := uuid.Parse(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user-id UUID: %s\n", input)
		os.Exit(1)
	}
	return id.UserID(parsed)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
