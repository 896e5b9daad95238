package out

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	pluginrpc "exthub/internal/modules/registry/adapter/out/rpc"
	"exthub/internal/modules/registry/domain"
	regout "exthub/internal/modules/registry/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// GRPCHost probes grpc-transport plugins by briefly hosting them through
// go-plugin. The child process lives only for the duration of the probe.
type GRPCHost struct{}

func NewGRPCHost() regout.Prober {
	return &GRPCHost{}
}

func (h *GRPCHost) Probe(ctx context.Context, entry domain.Entry) (domain.ProbeReport, error) {
	if entry.Manifest.EffectiveTransport() != domain.TransportGRPC {
		return domain.ProbeReport{}, fmt.Errorf("plugin %s does not use the grpc transport", entry.Manifest.ID)
	}
	client, closeFn, err := h.connect(entry, defaultStartTimeout)
	if err != nil {
		return domain.ProbeReport{}, err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()

	description, err := client.Describe(callCtx)
	if err != nil {
		return domain.ProbeReport{}, fmt.Errorf("describe: %w", err)
	}
	return domain.ProbeReport{
		Name:     description.Name,
		Version:  description.Version,
		Commands: description.Commands,
	}, nil
}

func (h *GRPCHost) connect(entry domain.Entry, startTimeout time.Duration) (pluginrpc.ToolPluginClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  pluginrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          pluginrpc.PluginMap(nil),
		Cmd:              exec.Command(entry.Manifest.Entrypoint),
		Managed:          true,
		StartTimeout:     startTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start plugin client: %w", err)
	}
	raw, err := rpcClient.Dispense(pluginrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense plugin: %w", err)
	}
	typed, ok := raw.(pluginrpc.ToolPluginClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("plugin rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func (h *GRPCHost) callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
