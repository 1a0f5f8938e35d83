// Package agentdeck is a control plane for A2A (Agent-to-Agent) agents.
//
// Agentdeck connects to remote A2A agents over the HTTP+JSON transport,
// keeps per-agent conversation state across restarts, and runs a local
// proxy that attaches stored credentials so callers never handle them.
//
// # Quick Start
//
// Install agentdeck:
//
//	go install github.com/agentdeck/agentdeck/cmd/agentdeck@latest
//
// Connect an agent and talk to it:
//
//	agentdeck agents add https://agent.example/.well-known/agent-card.json --bearer "Bearer $TOKEN"
//	agentdeck chat
//
// Run the local proxy server:
//
//	agentdeck serve --config agentdeck.yaml
//
// # Using as Go Library
//
// Import specific packages:
//
//	import (
//	    "github.com/agentdeck/agentdeck/pkg/a2a"
//	    "github.com/agentdeck/agentdeck/pkg/console"
//	    "github.com/agentdeck/agentdeck/pkg/registry"
//	)
//
// The a2a package speaks the protocol (client, event streams, agent
// cards). The console package folds protocol events into a display-ready
// conversation surface, guards against duplicate task subscriptions, and
// orchestrates blocking and streaming sends. The registry and session
// packages persist agent connections and surface state in SQLite.
//
// # License
//
// Apache-2.0 - See LICENSE for details.
package agentdeck
