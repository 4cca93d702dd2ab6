package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"solsweep/cmd"
)

func main() {
	// .env is optional; config falls back to the environment.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
