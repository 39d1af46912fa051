package main

import (
	"fmt"
	"os"

	"circle-media/backend/internal/cli"
	"circle-media/backend/pkg/logger"
)

func main() {
	err := cli.NewRootCommand().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
