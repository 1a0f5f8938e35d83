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

package a2a

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// ============================================================================
// AGENT CARD - Discovery & Capability Advertisement
// Spec Section 5
// ============================================================================

// TransportHTTPJSON is the transport label for the REST mapping this
// client speaks. Cards may additionally advertise "JSONRPC" or "GRPC".
const TransportHTTPJSON = "HTTP+JSON"

// WellKnownCardPath is where agent cards MUST be published (Section 5.3).
const WellKnownCardPath = "/.well-known/agent-card.json"

// AgentInterface pairs a transport label with its endpoint URL.
type AgentInterface struct {
	URL       string `json:"url"`
	Transport string `json:"transport"`
}

// AgentProvider describes the organization behind an agent.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitempty"`
}

// AgentExtension represents a custom capability extension.
type AgentExtension struct {
	URI         string         `json:"uri"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// AgentCapabilities describes optional protocol features.
type AgentCapabilities struct {
	Streaming              bool             `json:"streaming,omitempty"`
	PushNotifications      bool             `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool             `json:"stateTransitionHistory,omitempty"`
	Extensions             []AgentExtension `json:"extensions,omitempty"`
}

// AgentSkill describes one capability an agent advertises.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// AgentCard is the agent's discovery document. Security schemes are kept
// raw: the console displays them but never interprets them.
type AgentCard struct {
	ProtocolVersion      string                     `json:"protocolVersion,omitempty"`
	Name                 string                     `json:"name"`
	Description          string                     `json:"description,omitempty"`
	URL                  string                     `json:"url"`
	PreferredTransport   string                     `json:"preferredTransport,omitempty"`
	AdditionalInterfaces []AgentInterface           `json:"additionalInterfaces,omitempty"`
	IconURL              string                     `json:"iconUrl,omitempty"`
	Provider             *AgentProvider             `json:"provider,omitempty"`
	Version              string                     `json:"version,omitempty"`
	DocumentationURL     string                     `json:"documentationUrl,omitempty"`
	Capabilities         *AgentCapabilities         `json:"capabilities,omitempty"`
	SecuritySchemes      map[string]json.RawMessage `json:"securitySchemes,omitempty"`
	Security             []map[string][]string      `json:"security,omitempty"`
	DefaultInputModes    []string                   `json:"defaultInputModes,omitempty"`
	DefaultOutputModes   []string                   `json:"defaultOutputModes,omitempty"`
	Skills               []AgentSkill               `json:"skills,omitempty"`
}

// Interfaces returns the card's main endpoint plus additional interfaces,
// deduplicated by (transport, url). A card without a preferred transport
// defaults to JSONRPC.
func (c *AgentCard) Interfaces() []AgentInterface {
	preferred := c.PreferredTransport
	if preferred == "" {
		preferred = "JSONRPC"
	}

	all := append([]AgentInterface{{URL: c.URL, Transport: preferred}}, c.AdditionalInterfaces...)
	seen := make(map[string]bool, len(all))
	var out []AgentInterface
	for _, iface := range all {
		key := iface.Transport + "|" + iface.URL
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, iface)
	}
	return out
}

// RESTInterface returns the first HTTP+JSON interface, or nil.
func (c *AgentCard) RESTInterface() *AgentInterface {
	for _, iface := range c.Interfaces() {
		if iface.Transport == TransportHTTPJSON {
			return &iface
		}
	}
	return nil
}

// IsRESTCapable reports whether the agent speaks the HTTP+JSON transport.
func (c *AgentCard) IsRESTCapable() bool {
	return c.RESTInterface() != nil
}

// DeriveCardURL maps an agent base URL to its well-known card location.
func DeriveCardURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	return u.Scheme + "://" + u.Host + WellKnownCardPath, nil
}
