package phreeqc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"coagdose/domain/dose"
	"coagdose/internal"
)

// Client runs the PHREEQC binary once per scenario. Each call gets its own
// scratch directory, so concurrent searches never share files.
type Client struct {
	// BinaryPath locates the phreeqc executable
	BinaryPath string
	// DatabasePath locates the thermodynamic database (wateq4f.dat)
	DatabasePath string
	// WorkDir is the parent for per-call scratch directories; empty means
	// the system temp dir
	WorkDir string
	// Timeout bounds a single equilibration
	Timeout time.Duration

	log *internal.Logger
}

// NewClient creates a solver client
func NewClient(binaryPath, databasePath, workDir string, timeout time.Duration, logger *internal.Logger) *Client {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BinaryPath:   binaryPath,
		DatabasePath: databasePath,
		WorkDir:      workDir,
		Timeout:      timeout,
		log:          logger.Named("phreeqc"),
	}
}

// Equilibrate implements ports.EquilibriumPort: one scenario, one solver
// subprocess, one parsed state. Nonconvergence surfaces as OracleFailure,
// never as a zero-filled result.
func (c *Client) Equilibrate(ctx context.Context, s dose.Scenario) (*dose.EquilibriumResult, error) {
	runDir, err := os.MkdirTemp(c.WorkDir, "coagdose-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(runDir)

	inputPath := filepath.Join(runDir, "input.pqi")
	outputPath := filepath.Join(runDir, "output.pqo")
	script := Render(s)
	if err := os.WriteFile(inputPath, []byte(script), 0o644); err != nil {
		return nil, fmt.Errorf("write solver input: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.BinaryPath, inputPath, outputPath, c.DatabasePath)
	cmd.Dir = runDir
	started := time.Now()
	runErr := cmd.Run()
	c.log.Debug("scenario %s: solver ran %.0f ms", s.Fingerprint().Short(), time.Since(started).Seconds()*1000)

	// The main output decides between failure modes before the exit code
	// does: PHREEQC exits nonzero on input errors but also writes error
	// blocks on nonconvergence with exit 0 in some builds.
	if out, readErr := os.ReadFile(outputPath); readErr == nil {
		if fail := DetectFailure(string(out)); fail != nil {
			return nil, fail
		}
	}
	if runErr != nil {
		if runCtx.Err() != nil {
			return nil, runCtx.Err()
		}
		return nil, &dose.OracleFailure{Reason: "solver process failed", Detail: runErr.Error()}
	}

	f, err := os.Open(filepath.Join(runDir, selectedFile))
	if err != nil {
		return nil, &dose.OracleFailure{Reason: "solver wrote no selected output", Detail: err.Error()}
	}
	defer f.Close()
	return ParseSelected(f, s)
}
