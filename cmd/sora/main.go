package main

import (
	"os"

	"github.com/rustyeddy/sora/cmd/sora/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
