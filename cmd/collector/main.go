package main

import (
	"os"

	"github.com/promowatch/reddit-collector/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
