package main

import (
	"fmt"
	"os"

	"kpiboard/internal/cli"
)

func main() {
	// Load .env for local development; ignore error if file is missing
	cli.LoadEnvFile()

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := cli.RootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
