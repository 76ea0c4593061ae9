// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command brandforge runs the branding pipeline.
//
// Usage:
//
//	brandforge run --config config.yaml --intake intake.yaml
//	brandforge validate --config config.yaml
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/logger"
	"github.com/brandforge/brandforge/pkg/pipeline"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Run      RunCmd      `cmd:"" help:"Run a branding case to completion."`
	Validate ValidateCmd `cmd:"" help:"Validate configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("brandforge version %s\n", version)
	return nil
}

// ValidateCmd loads and validates the configuration file.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required")
	}
	cfg, loader, err := config.LoadFile(context.Background(), cli.Config)
	if err != nil {
		return err
	}
	defer loader.Close()
	fmt.Printf("Configuration valid: %s\n", cfg.String())
	return nil
}

// RunCmd starts a case from an intake file and drives it to a
// terminal status.
type RunCmd struct {
	Intake  string `short:"i" required:"" help:"Path to intake file (YAML or JSON)." type:"path"`
	Watch   bool   `help:"Watch config file and hot-reload pipeline tunables."`
	Observe bool   `help:"Enable metrics and tracing."`
	Port    int    `help:"Metrics port (with --observe)." default:"9090"`
}

func (c *RunCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	app, err := buildApp(ctx, cli, c.Watch, c.Observe)
	if err != nil {
		return err
	}
	defer app.Close()

	go func() {
		<-sigCh
		logger.GetLogger().Info("Shutting down, cancelling active case")
		app.RequestCancel()
		cancel()
	}()

	if c.Observe {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", c.Port)
			logger.GetLogger().Info("Metrics listening", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.GetLogger().Warn("Metrics server stopped", "error", err)
			}
		}()
	}

	intake, err := loadIntake(c.Intake)
	if err != nil {
		return err
	}

	cs, err := app.RunCase(ctx, intake)
	if err != nil {
		return err
	}
	printOutcome(cs)

	if cs.Status != pipeline.StatusSucceeded {
		os.Exit(1)
	}
	return nil
}

func printOutcome(cs *pipeline.Case) {
	fmt.Printf("case %s: %s (stage %s)\n", cs.ID, cs.Status, cs.Stage)
	for _, s := range pipeline.WorkingStages() {
		mark := " "
		if cs.Artifacts.Has(s) {
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, s)
	}
	if cs.Failure != nil {
		fmt.Printf("  failure: %s at %s after %d attempts: %s\n",
			cs.Failure.Kind, cs.Failure.Stage, cs.Failure.Attempts, cs.Failure.Message)
	}
	if lg := cs.Artifacts.LogoGeneration; lg != nil {
		fmt.Printf("  logo candidates: %d (%d accepted), cost $%.3f\n",
			len(lg.Candidates), len(lg.AcceptedCandidates()), lg.TotalCost)
	}
	if ag := cs.Artifacts.AssetGeneration; ag != nil {
		for _, line := range ag.Manifest {
			fmt.Printf("  asset: %s\n", line)
		}
	}
}

func main() {
	config.LoadDotEnv()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("brandforge"),
		kong.Description("brandforge - multi-agent branding pipeline"),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	out := os.Stderr
	if cli.LogFile != "" {
		f, cleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		out = f
	}
	logger.Init(level, out, cli.LogFormat)

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
