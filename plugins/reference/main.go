package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-plugin"

	pluginrpc "exthub/internal/modules/registry/adapter/out/rpc"
)

type server struct{}

func (s *server) Describe(_ context.Context, _ *pluginrpc.Empty) (*pluginrpc.Description, error) {
	return &pluginrpc.Description{
		Name:     "reference",
		Version:  "1.0.0",
		Commands: []string{"echo", "measure"},
	}, nil
}

func (s *server) Invoke(_ context.Context, in *pluginrpc.InvokeRequest) (*pluginrpc.InvokeResponse, error) {
	switch in.Command {
	case "echo":
		if strings.TrimSpace(in.InputJSON) == "" {
			return &pluginrpc.InvokeResponse{OutputJSON: `{"echo":""}`}, nil
		}
		return &pluginrpc.InvokeResponse{OutputJSON: fmt.Sprintf(`{"echo":%q}`, in.InputJSON)}, nil
	case "measure":
		payload := map[string]any{}
		if strings.TrimSpace(in.InputJSON) != "" {
			_ = json.Unmarshal([]byte(in.InputJSON), &payload)
		}
		result := map[string]any{
			"session_id": in.SessionID,
			"result":     "measurement-ready",
			"input_keys": len(payload),
		}
		raw, _ := json.Marshal(result)
		return &pluginrpc.InvokeResponse{OutputJSON: string(raw)}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", in.Command)
	}
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginrpc.HandshakeConfig,
		Plugins:         pluginrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
