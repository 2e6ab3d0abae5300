package main

import (
	"os"

	"pecover/internal/cli"
)

// version is the application version reported by --version.
const version = "v1.0"

func main() {
	os.Exit(cli.Execute(version))
}
