package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/kailas-cloud/artpair/cmd/artpair/commands"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
