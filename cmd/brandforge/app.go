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

package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/brandforge/brandforge/pkg/agents"
	"github.com/brandforge/brandforge/pkg/backends"
	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/coordinator"
	"github.com/brandforge/brandforge/pkg/dispatch"
	"github.com/brandforge/brandforge/pkg/logger"
	"github.com/brandforge/brandforge/pkg/observability"
	"github.com/brandforge/brandforge/pkg/pipeline"
	"github.com/brandforge/brandforge/pkg/ratelimit"
	"github.com/brandforge/brandforge/pkg/storage"
)

// App wires the pipeline components for one CLI invocation.
type App struct {
	coord   *coordinator.Coordinator
	loader  *config.Loader
	cases   storage.CaseStore
	runtime *config.Runtime

	tracerShutdown func(context.Context) error

	mu         sync.Mutex
	activeCase string
}

func buildApp(ctx context.Context, cli *CLI, watch, observe bool) (*App, error) {
	cfg, loader, err := config.LoadFile(ctx, cli.Config)
	if err != nil {
		return nil, err
	}

	runtime := config.NewRuntime(cfg)

	blobs, err := buildBlobStore(&cfg.Storage)
	if err != nil {
		loader.Close()
		return nil, err
	}
	cases, err := buildCaseStore(&cfg.Storage)
	if err != nil {
		loader.Close()
		return nil, err
	}

	registry, err := backends.RegistryFromConfig(cfg.Backends)
	if err != nil {
		loader.Close()
		return nil, fmt.Errorf("failed to build backend registry: %w", err)
	}

	metrics, err := observability.InitMetrics(observe)
	if err != nil {
		loader.Close()
		return nil, err
	}
	tracerShutdown, err := observability.InitTracer(ctx, observe)
	if err != nil {
		loader.Close()
		return nil, err
	}

	dispatcher := dispatch.New(registry, ratelimit.NewBuckets())

	agentSet := agents.All(agents.Deps{
		Dispatcher: dispatcher,
		Runtime:    runtime,
		Blobs:      blobs,
		Logger:     logger.GetLogger(),
	})

	coord := coordinator.New(agentSet, cases, runtime,
		coordinator.WithMetrics(metrics))

	app := &App{
		coord:          coord,
		loader:         loader,
		cases:          cases,
		runtime:        runtime,
		tracerShutdown: tracerShutdown,
	}

	if watch {
		// Hot reload swaps the pipeline tunables only; the backend
		// registry stays until an explicit restart.
		reloadLoader := config.NewLoader(loader.Provider(),
			config.WithOnChange(func(newCfg *config.Config) {
				runtime.Apply(newCfg)
				logger.GetLogger().Info("Pipeline tunables reloaded")
			}))
		go func() {
			if err := reloadLoader.Watch(ctx); err != nil && ctx.Err() == nil {
				logger.GetLogger().Warn("Config watch stopped", "error", err)
			}
		}()
	}

	return app, nil
}

// RunCase starts the intake and drives it to a terminal status.
func (a *App) RunCase(ctx context.Context, intake pipeline.Intake) (*pipeline.Case, error) {
	cs, err := a.coord.StartCase(ctx, intake)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.activeCase = cs.ID
	a.mu.Unlock()

	return a.coord.RunToCompletion(ctx, cs.ID)
}

// RequestCancel cancels the active case, if any. The in-flight stage
// finishes; the cancellation lands at the next stage boundary.
func (a *App) RequestCancel() {
	a.mu.Lock()
	caseID := a.activeCase
	a.mu.Unlock()
	if caseID == "" {
		return
	}

	go func() {
		if _, err := a.coord.Cancel(context.Background(), caseID); err != nil {
			logger.GetLogger().Warn("Cancel failed", "case", caseID, "error", err)
		}
	}()
}

func (a *App) Close() {
	if a.tracerShutdown != nil {
		_ = a.tracerShutdown(context.Background())
	}
	if a.cases != nil {
		_ = a.cases.Close()
	}
	if a.loader != nil {
		_ = a.loader.Close()
	}
}

func buildBlobStore(cfg *config.StorageConfig) (storage.BlobStore, error) {
	switch cfg.BlobStore {
	case "disk":
		return storage.NewDiskBlobStore(cfg.BlobPath)
	default:
		return storage.NewMemoryBlobStore(), nil
	}
}

func buildCaseStore(cfg *config.StorageConfig) (storage.CaseStore, error) {
	switch cfg.CaseStore {
	case "sqlite":
		return storage.NewSQLCaseStore(cfg.CasePath)
	default:
		return storage.NewMemoryCaseStore(), nil
	}
}
