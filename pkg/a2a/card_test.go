package a2a

import "testing"

func TestAgentCard_Interfaces(t *testing.T) {
	card := &AgentCard{
		URL:                "https://agent.example/jsonrpc",
		PreferredTransport: "JSONRPC",
		AdditionalInterfaces: []AgentInterface{
			{URL: "https://agent.example/rest", Transport: TransportHTTPJSON},
			{URL: "https://agent.example/jsonrpc", Transport: "JSONRPC"}, // duplicate of main
			{URL: "https://agent.example/grpc", Transport: "GRPC"},
		},
	}

	ifaces := card.Interfaces()
	if len(ifaces) != 3 {
		t.Fatalf("Interfaces() returned %d entries, want 3 (deduplicated)", len(ifaces))
	}
	if ifaces[0].Transport != "JSONRPC" {
		t.Errorf("main interface should come first, got %q", ifaces[0].Transport)
	}
}

func TestAgentCard_RESTInterface(t *testing.T) {
	tests := []struct {
		name string
		card AgentCard
		want string
	}{
		{
			name: "preferred transport is REST",
			card: AgentCard{URL: "https://a/rest", PreferredTransport: TransportHTTPJSON},
			want: "https://a/rest",
		},
		{
			name: "REST among additional interfaces",
			card: AgentCard{
				URL:                  "https://a/jsonrpc",
				PreferredTransport:   "JSONRPC",
				AdditionalInterfaces: []AgentInterface{{URL: "https://a/rest", Transport: TransportHTTPJSON}},
			},
			want: "https://a/rest",
		},
		{
			name: "no REST interface",
			card: AgentCard{URL: "https://a/jsonrpc", PreferredTransport: "JSONRPC"},
			want: "",
		},
		{
			name: "no preferred transport defaults to JSONRPC",
			card: AgentCard{URL: "https://a/x"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iface := tt.card.RESTInterface()
			if tt.want == "" {
				if iface != nil {
					t.Fatalf("RESTInterface() = %+v, want nil", iface)
				}
				if tt.card.IsRESTCapable() {
					t.Error("IsRESTCapable() = true, want false")
				}
				return
			}
			if iface == nil {
				t.Fatal("RESTInterface() = nil")
			}
			if iface.URL != tt.want {
				t.Errorf("RESTInterface().URL = %q, want %q", iface.URL, tt.want)
			}
			if !tt.card.IsRESTCapable() {
				t.Error("IsRESTCapable() = false, want true")
			}
		})
	}
}

func TestDeriveCardURL(t *testing.T) {
	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{"https://agent.example/api/v2", "https://agent.example/.well-known/agent-card.json", false},
		{"http://localhost:8080", "http://localhost:8080/.well-known/agent-card.json", false},
		{"not a url", "", true},
		{"/relative/only", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := DeriveCardURL(tt.base)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DeriveCardURL(%q) succeeded, want error", tt.base)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeriveCardURL(%q): %v", tt.base, err)
			}
			if got != tt.want {
				t.Errorf("DeriveCardURL(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}
