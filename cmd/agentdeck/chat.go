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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agentdeck/agentdeck/pkg/a2a"
	"github.com/agentdeck/agentdeck/pkg/cli"
	"github.com/agentdeck/agentdeck/pkg/config"
	"github.com/agentdeck/agentdeck/pkg/console"
)

// chatSurface names the conversation surface the REPL owns. The server's
// surfaces live under different names, so CLI and server sessions never
// collide.
const chatSurface = "playground"

// ChatCmd opens an interactive conversation with the active agent.
type ChatCmd struct {
	Mode  string `help:"Send mode (blocking, stream)." default:"stream"`
	Fresh bool   `help:"Start a fresh conversation instead of restoring the last one."`
}

func (c *ChatCmd) Run(cfg *config.Config) error {
	switch console.Mode(c.Mode) {
	case console.ModeBlocking, console.ModeStream:
	default:
		return fmt.Errorf("invalid mode: %q (supported: blocking, stream)", c.Mode)
	}

	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	client, record, err := env.activeClient()
	if err != nil {
		return err
	}
	defer client.Close()

	vm, err := env.sessions.Get(record.ID, chatSurface)
	if err != nil {
		return err
	}
	if c.Fresh {
		vm.Reset()
	}
	vm.Mode = console.Mode(c.Mode)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("💬 Chatting with %s (%s mode). /mode, /reset, /quit\n\n", record.Name, vm.Mode)
	cli.WriteTranscript(os.Stdout, vm)

	guard := console.NewGuard(console.WithDebounce(cfg.Client.ResubscribeDebounce))
	resumer := console.NewResumer(client, guard, env.sessions)
	sender := console.NewSender(client, env.sessions)

	// Pick up a task that was still running when the last session ended.
	if resumed, err := resumer.Resume(ctx, console.ReasonMountRestore, record.ID, chatSurface, vm); err != nil {
		cli.WriteError(os.Stdout, err)
	} else if resumed {
		printNewBubbles(vm, 0)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/reset":
			vm.Reset()
			if err := env.sessions.Save(record.ID, chatSurface, vm); err != nil {
				cli.WriteError(os.Stdout, err)
			}
			fmt.Println("Conversation cleared.")
			continue
		case strings.HasPrefix(line, "/mode"):
			handleModeCommand(vm, line)
			continue
		case strings.HasPrefix(line, "/"):
			fmt.Printf("Unknown command: %s\n", line)
			continue
		}

		before := len(vm.Bubbles)
		if err := sendAndRender(ctx, sender, record.ID, vm, line, before); err != nil {
			cli.WriteError(os.Stdout, err)
		}
	}
}

func handleModeCommand(vm *console.ViewModel, line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		fmt.Printf("Mode: %s\n", vm.Mode)
		return
	}
	switch console.Mode(fields[1]) {
	case console.ModeBlocking, console.ModeStream:
		vm.Mode = console.Mode(fields[1])
		fmt.Printf("Mode set to %s\n", vm.Mode)
	default:
		fmt.Printf("Unknown mode: %s (supported: blocking, stream)\n", fields[1])
	}
}

func sendAndRender(ctx context.Context, sender *console.Sender, agentID string, vm *console.ViewModel, text string, before int) error {
	if err := sender.Send(ctx, agentID, chatSurface, vm, text); err != nil {
		return err
	}
	// Skip the echoed user bubble; print what the agent produced.
	printNewBubbles(vm, before+1)
	return nil
}

func printNewBubbles(vm *console.ViewModel, from int) {
	for i := from; i < len(vm.Bubbles); i++ {
		bubble := vm.Bubbles[i]
		if bubble.Role != a2a.RoleAgent {
			continue
		}
		fmt.Printf("Agent: %s\n", bubble.Text)
	}
	if vm.LastState != "" && !vm.LastState.Active() {
		fmt.Printf("  [%s %s]\n", cli.StateGlyph(vm.LastState), vm.LastState)
	}
}
