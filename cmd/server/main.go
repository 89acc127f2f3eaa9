package main

import (
	"fmt"
	"os"

	"github.com/paper-nest/backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "paper-nest:", err)
		os.Exit(1)
	}
}
