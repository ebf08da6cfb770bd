package main

import (
	"log/slog"
	"os"

	"ontosync/cmd"
	"ontosync/config"
)

func main() {
	cnf, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cmd.Execute(cnf); err != nil {
		slog.Error("Failed to execute command", "error", err)
		os.Exit(1)
	}
}
