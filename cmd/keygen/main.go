package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/advisor-gateway/internal/auth"
)

func main() {
	secret := flag.String("secret", "", "HS256 signing secret (defaults to $ADVISOR_AUTH__JWT_SECRET or $JWT_SECRET)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: go run ./cmd/keygen [-secret s] [-ttl 24h] <user-id>")
		fmt.Fprintln(os.Stderr, "Issues a bearer token whose subject is the given user id, for local testing of /chat.")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	userID := flag.Arg(0)

	_ = godotenv.Load()
	if *secret == "" {
		*secret = os.Getenv("ADVISOR_AUTH__JWT_SECRET")
	}
	if *secret == "" {
		*secret = os.Getenv("JWT_SECRET")
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "no signing secret: pass -secret or set ADVISOR_AUTH__JWT_SECRET")
		os.Exit(1)
	}

	token, err := auth.NewVerifier(*secret).Issue(userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User ID: %s\n", userID)
	fmt.Printf("Expires: %s\n", time.Now().Add(*ttl).UTC().Format(time.RFC3339))
	fmt.Println("\nSend it with:")
	fmt.Printf("  Authorization: Bearer %s\n", token)
}
