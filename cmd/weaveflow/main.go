package main

import (
	"os"

	"github.com/avi3tal/weaveflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
