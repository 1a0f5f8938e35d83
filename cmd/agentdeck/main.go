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

// Command agentdeck is the CLI for the agentdeck control plane.
//
// Usage:
//
//	agentdeck serve --config agentdeck.yaml
//	agentdeck agents add https://agent.example/.well-known/agent-card.json
//	agentdeck tasks list
//	agentdeck chat
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/agentdeck/agentdeck/pkg/config"
	"github.com/agentdeck/agentdeck/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the local proxy server."`
	Agents  AgentsCmd  `cmd:"" help:"Manage registered agents."`
	Tasks   TasksCmd   `cmd:"" help:"Inspect tasks on the active agent."`
	Chat    ChatCmd    `cmd:"" help:"Open an interactive conversation with the active agent."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFormat string `help:"Log format (text, json)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
}

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agentdeck"),
		kong.Description("agentdeck - Control plane for A2A agents"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// CLI flags override the config file.
	level := cfg.Logging.Level
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}
	format := cfg.Logging.Format
	if cli.LogFormat != "" {
		format = cli.LogFormat
	}

	output := os.Stderr
	if cli.LogFile != "" {
		file, cleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		output = file
	}
	logger.Init(logger.ParseLevel(level), output, format)

	err = ctx.Run(&cli, cfg)
	ctx.FatalIfErrorf(err)
}
