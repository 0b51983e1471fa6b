package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/rxkshit04/nightpulse/internal/cli"
	"github.com/rxkshit04/nightpulse/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}

	if err := cli.NewRootCommand(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
