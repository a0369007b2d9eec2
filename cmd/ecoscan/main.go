package main

import (
	"os"

	"github.com/franckalain/ecoscan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
