package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey   = "exthub"
	serviceName    = "exthub.plugin.v1.ToolPlugin"
	jsonCodecName  = "json"
	methodDescribe = "/" + serviceName + "/Describe"
	methodInvoke   = "/" + serviceName + "/Invoke"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "EXTHUB_PLUGIN",
	MagicCookieValue: "exthub",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Description struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Commands []string `json:"commands"`
}

type InvokeRequest struct {
	Command   string `json:"command"`
	InputJSON string `json:"input_json"`
	SessionID string `json:"session_id"`
}

type InvokeResponse struct {
	OutputJSON string `json:"output_json"`
	ExitCode   int32  `json:"exit_code"`
}

type ToolPluginServer interface {
	Describe(ctx context.Context, in *Empty) (*Description, error)
	Invoke(ctx context.Context, in *InvokeRequest) (*InvokeResponse, error)
}

type ToolPluginClient interface {
	Describe(ctx context.Context) (*Description, error)
	Invoke(ctx context.Context, in *InvokeRequest) (*InvokeResponse, error)
}

type toolPluginClient struct {
	conn *grpc.ClientConn
}

func NewToolPluginClient(conn *grpc.ClientConn) ToolPluginClient {
	return &toolPluginClient{conn: conn}
}

func (c *toolPluginClient) Describe(ctx context.Context) (*Description, error) {
	out := &Description{}
	if err := c.conn.Invoke(ctx, methodDescribe, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *toolPluginClient) Invoke(ctx context.Context, in *InvokeRequest) (*InvokeResponse, error) {
	out := &InvokeResponse{}
	if err := c.conn.Invoke(ctx, methodInvoke, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterToolPluginServer(server grpc.ServiceRegistrar, impl ToolPluginServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*ToolPluginServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Describe",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Describe(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDescribe}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Describe(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "Invoke",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &InvokeRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Invoke(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodInvoke}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*InvokeRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Invoke(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/tool-plugin-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl ToolPluginServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterToolPluginServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewToolPluginClient(conn), nil
}

func PluginMap(impl ToolPluginServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
