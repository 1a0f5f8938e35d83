// Copyright 2025 Agentdeck Authors
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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	agentdeck "github.com/agentdeck/agentdeck"
	"github.com/agentdeck/agentdeck/pkg/a2a"
	"github.com/agentdeck/agentdeck/pkg/cli"
	"github.com/agentdeck/agentdeck/pkg/config"
	"github.com/agentdeck/agentdeck/pkg/registry"
	"github.com/agentdeck/agentdeck/pkg/server"
	"github.com/agentdeck/agentdeck/pkg/session"
)

// appEnv bundles the storage-backed state every command operates on.
type appEnv struct {
	cfg      *config.Config
	db       *sql.DB
	registry *registry.Registry
	sessions *session.Store
}

// openEnv opens the configured storage (if any) and restores the agent
// registry. The caller must Close the environment.
func openEnv(cfg *config.Config) (*appEnv, error) {
	env := &appEnv{cfg: cfg}

	var backend session.Backend
	if cfg.Storage.Path != "" {
		db, err := session.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		env.db = db

		backend, err = session.NewSQLiteBackend(db)
		if err != nil {
			db.Close()
			return nil, err
		}

		store, err := registry.NewSQLiteStore(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		env.registry = registry.New(registry.WithStore(store))
	} else {
		backend = session.NewMemoryBackend()
		env.registry = registry.New()
	}

	if err := env.registry.Restore(); err != nil {
		env.Close()
		return nil, err
	}
	env.sessions = session.NewStore(backend)
	return env, nil
}

func (e *appEnv) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

// activeClient returns a protocol client bound to the active agent.
func (e *appEnv) activeClient() (*a2a.Client, *registry.Record, error) {
	record, ok := e.registry.Active()
	if !ok {
		return nil, nil, fmt.Errorf("no active agent (use 'agentdeck agents add' or 'agentdeck agents use')")
	}
	client := a2a.NewClient(a2a.ClientConfig{
		BaseURL: record.RESTBase,
		Bearer:  record.Bearer,
		Timeout: e.cfg.Client.Timeout,
	})
	return client, record, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (v *VersionCmd) Run(cfg *config.Config) error {
	fmt.Println(agentdeck.GetVersion().String())
	return nil
}

// ServeCmd starts the local proxy server.
type ServeCmd struct {
	Port  int  `short:"p" help:"Override the configured listen port."`
	Watch bool `short:"w" help:"Reload configuration when the file changes."`
}

func (s *ServeCmd) Run(cli *CLI, cfg *config.Config) error {
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}

	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if s.Watch && cli.Config != "" {
		go func() {
			err := config.Watch(ctx, cli.Config, func(updated *config.Config) {
				slog.Info("Configuration reloaded", "path", cli.Config)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("Config watch stopped", "error", err)
			}
		}()
	}

	srv := server.New(*cfg, env.registry)
	slog.Info("Starting agentdeck server", "address", cfg.Server.Address())
	return srv.Start(ctx)
}

// AgentsCmd manages registered agents.
type AgentsCmd struct {
	Add    AgentsAddCmd    `cmd:"" help:"Register an agent by its card URL and make it active."`
	List   AgentsListCmd   `cmd:"" default:"1" help:"List registered agents."`
	Use    AgentsUseCmd    `cmd:"" help:"Select the active agent."`
	Remove AgentsRemoveCmd `cmd:"" help:"Remove a registered agent."`
}

// AgentsAddCmd registers a new agent connection.
type AgentsAddCmd struct {
	CardURL string `arg:"" help:"URL of the agent card."`
	Bearer  string `help:"Authorization header value attached by the proxy (e.g. 'Bearer <token>')."`
}

func (a *AgentsAddCmd) Run(cfg *config.Config) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	record, err := env.registry.Add(ctx, a.CardURL, a.Bearer)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Connected to %s", record.Name)
	if record.Version != "" {
		fmt.Printf(" v%s", record.Version)
	}
	fmt.Printf(" (%s)\n", record.RESTBase)
	return nil
}

// AgentsListCmd lists registered agents.
type AgentsListCmd struct{}

func (a *AgentsListCmd) Run(cfg *config.Config) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	activeID := ""
	if record, ok := env.registry.Active(); ok {
		activeID = record.ID
	}
	cli.WriteAgentList(os.Stdout, env.registry.List(), activeID)
	return nil
}

// AgentsUseCmd selects the active agent.
type AgentsUseCmd struct {
	ID string `arg:"" help:"Agent ID to activate."`
}

func (a *AgentsUseCmd) Run(cfg *config.Config) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.registry.SetActive(a.ID); err != nil {
		return err
	}
	record, _ := env.registry.Get(a.ID)
	fmt.Printf("✅ Active agent: %s\n", record.Name)
	return nil
}

// AgentsRemoveCmd removes a registered agent.
type AgentsRemoveCmd struct {
	ID string `arg:"" help:"Agent ID to remove."`
}

func (a *AgentsRemoveCmd) Run(cfg *config.Config) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.registry.Remove(a.ID); err != nil {
		return err
	}
	fmt.Println("✅ Agent removed")
	return nil
}

// TasksCmd inspects tasks on the active agent.
type TasksCmd struct {
	List   TasksListCmd   `cmd:"" default:"1" help:"List tasks."`
	Get    TasksGetCmd    `cmd:"" help:"Show one task."`
	Cancel TasksCancelCmd `cmd:"" help:"Request cancellation of a task."`
}

// TasksListCmd lists the active agent's tasks.
type TasksListCmd struct{}

func (t *TasksListCmd) Run(cfg *config.Config) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	client, _, err := env.activeClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := signalContext()
	defer cancel()

	tasks, err := client.ListTasks(ctx)
	if err != nil {
		return err
	}
	cli.WriteTaskList(os.Stdout, tasks)
	return nil
}

// TasksGetCmd shows one task in detail.
type TasksGetCmd struct {
	ID string `arg:"" help:"Task ID."`
}

func (t *TasksGetCmd) Run(cfg *config.Config) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	client, _, err := env.activeClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := signalContext()
	defer cancel()

	task, err := client.GetTask(ctx, t.ID)
	if err != nil {
		return err
	}
	cli.WriteTask(os.Stdout, task)
	return nil
}

// TasksCancelCmd requests cancellation of a task.
type TasksCancelCmd struct {
	ID string `arg:"" help:"Task ID."`
}

func (t *TasksCancelCmd) Run(cfg *config.Config) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	client, _, err := env.activeClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := signalContext()
	defer cancel()

	task, err := client.CancelTask(ctx, t.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Task %s is now %s\n", task.ID, task.Status.State)
	return nil
}
