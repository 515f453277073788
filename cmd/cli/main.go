package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"coagdose/adapters/phreeqc"
	"coagdose/app"
	"coagdose/domain/phases"
	"coagdose/internal"
	"coagdose/internal/config"
	"coagdose/internal/testkit"
	"coagdose/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "coagdose",
		Short: "Coagulant dose optimization for phosphorus removal",
	}

	rootCmd.AddCommand(
		newDoseCmd(),
		newSweepCmd(),
		newSensitivityCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// scenarioFile is the YAML request format read by every subcommand
type scenarioFile struct {
	app.Request `yaml:",inline"`
	DosesMol    []float64 `yaml:"doses_mol,omitempty"`
}

func loadScenario(path string) (*scenarioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var sf scenarioFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}
	return &sf, nil
}

// newService wires a dose service against either the real solver (from
// environment configuration) or the synthetic test model for dry runs.
func newService(synthetic bool) (*app.DoseService, error) {
	logger := internal.NewDefaultLogger()
	var oracle ports.EquilibriumPort
	if synthetic {
		oracle = testkit.NewSyntheticOracle()
	} else {
		_ = godotenv.Load()
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		oracle = phreeqc.NewClient(cfg.Phreeqc.BinaryPath, cfg.Phreeqc.DatabasePath,
			cfg.Phreeqc.WorkDir, cfg.Phreeqc.Timeout, logger)
	}
	return app.NewDoseService(oracle, phases.DefaultCapabilities(), logger), nil
}

func newDoseCmd() *cobra.Command {
	var scenarioPath string
	var synthetic bool
	var timeoutSec int

	cmd := &cobra.Command{
		Use:   "dose",
		Short: "Find the minimum coagulant dose reaching the target residual",
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := loadScenario(scenarioPath)
			if err != nil {
				return err
			}
			svc, err := newService(synthetic)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
			defer cancel()

			result, err := svc.Calculate(ctx, sf.Request)
			if err != nil && result == nil {
				return err
			}
			printJSON(result)
			if result.Status == app.StatusInputError {
				os.Exit(2)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "path to scenario YAML (required)")
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "use the synthetic equilibrium model instead of PHREEQC")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 600, "overall timeout in seconds")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var scenarioPath string
	var synthetic bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate fixed doses on one chemistry (dose-response curve)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := loadScenario(scenarioPath)
			if err != nil {
				return err
			}
			if len(sf.DosesMol) == 0 {
				return fmt.Errorf("scenario file needs doses_mol for a sweep")
			}
			svc, err := newService(synthetic)
			if err != nil {
				return err
			}
			points, err := svc.Sweep(context.Background(), sf.Request, sf.DosesMol)
			if err != nil {
				return err
			}
			printJSON(points)
			return nil
		},
	}
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "path to scenario YAML (required)")
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "use the synthetic equilibrium model instead of PHREEQC")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func newSensitivityCmd() *cobra.Command {
	var scenarioPath string
	var synthetic bool

	cmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Bound iron demand across assumed sulfide levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := loadScenario(scenarioPath)
			if err != nil {
				return err
			}
			sf.Request.SulfideSensitivity = true
			svc, err := newService(synthetic)
			if err != nil {
				return err
			}
			result, err := svc.Calculate(context.Background(), sf.Request)
			if err != nil && result == nil {
				return err
			}
			printJSON(result)
			if result.Sensitivity != nil {
				fmt.Fprintln(os.Stderr, result.Sensitivity.Recommendation)
			}
			if result.Status == app.StatusInputError {
				os.Exit(2)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "path to scenario YAML (required)")
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "use the synthetic equilibrium model instead of PHREEQC")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(out))
}
