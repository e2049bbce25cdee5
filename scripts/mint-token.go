package main

import (
	"fmt"
	"os"
	"time"

	"github.com/peerpresence/server-go/internal/auth"
)

// Mints a bearer token for local testing. Production tokens come from the
// identity provider that shares JWT_SECRET.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: JWT_SECRET=... go run scripts/mint-token.go <personId> [ttl]\n")
		os.Exit(1)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintf(os.Stderr, "JWT_SECRET is not set\n")
		os.Exit(1)
	}

	ttl := 24 * time.Hour
	if len(os.Args) > 2 {
		d, err := time.ParseDuration(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ttl = d
	}

	token, err := auth.NewJWT(secret).Sign(os.Args[1], ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
