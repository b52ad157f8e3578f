// Package main generates a webhook shared secret and the bcrypt hash the
// server stores. Paste the secret into the voice platform's webhook
// configuration and set APP_VOICE_WEBHOOK_SECRET_HASH to the hash.
package main

import (
	"flag"
	"fmt"
	"os"

	"spamstopper/pkg/secrets"
)

func main() {
	existing := flag.String("secret", "", "Hash an existing secret instead of generating one")
	flag.Parse()

	secret := *existing
	if secret == "" {
		generated, err := secrets.Generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating secret: %v\n", err)
			os.Exit(1)
		}
		secret = generated
	}

	hash, err := secrets.Hash(secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing secret: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Webhook Shared Secret")
	fmt.Println("=====================")
	fmt.Printf("Secret: %s\n", secret)
	fmt.Printf("Hash:   %s\n", hash)
	fmt.Println()
	fmt.Println("Set the secret on the voice platform and export:")
	fmt.Printf("  APP_VOICE_WEBHOOK_SECRET_HASH='%s'\n", hash)
}
