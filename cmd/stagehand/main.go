package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/mediaops/stagehand/internal/cmd"
)

func main() {
	// Load a local .env if present; real environments set variables
	// directly and the file is optional.
	_ = godotenv.Load()

	os.Exit(cmd.Main(os.Args))
}
