package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"coagdose/adapters/api"
	"coagdose/adapters/phreeqc"
	"coagdose/app"
	"coagdose/domain/phases"
	"coagdose/internal"
	"coagdose/internal/config"
)

func main() {
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	oracle := phreeqc.NewClient(cfg.Phreeqc.BinaryPath, cfg.Phreeqc.DatabasePath,
		cfg.Phreeqc.WorkDir, cfg.Phreeqc.Timeout, logger)
	doser := app.NewDoseService(oracle, phases.DefaultCapabilities(), logger)

	server := api.NewServer(doser, logger)
	if err := server.ListenAndServe(cfg.Server.Port); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
