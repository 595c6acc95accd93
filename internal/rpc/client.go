package rpc

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/Someblueman/codeanalysis/internal/tool"
)

// Client calls a remote ToolService.
type Client struct {
	conn *jsonrpc2.Conn
}

// Dial connects to a JSON-RPC ToolService at addr.
func Dial(ctx context.Context, addr, framing string) (*Client, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewClient(ctx, nc, framing), nil
}

// NewClient speaks JSON-RPC over an established stream.
func NewClient(ctx context.Context, rwc io.ReadWriteCloser, framing string) *Client {
	stream := jsonrpc2.NewBufferedStream(rwc, objectCodec(framing))
	handler := jsonrpc2.HandlerWithError(func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (interface{}, error) {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled"}
	})
	return &Client{conn: jsonrpc2.NewConn(ctx, stream, handler)}
}

// GetSpec fetches the tool description.
func (c *Client) GetSpec(ctx context.Context) (tool.ToolSpec, error) {
	var spec tool.ToolSpec
	if err := c.conn.Call(ctx, MethodGetSpec, nil, &spec); err != nil {
		return tool.ToolSpec{}, err
	}
	return spec, nil
}

// Execute runs one analysis request remotely.
func (c *Client) Execute(ctx context.Context, input []byte, contentType string) (tool.ExecuteResponse, error) {
	var resp tool.ExecuteResponse
	params := ExecuteParams{Input: input, ContentType: contentType}
	if err := c.conn.Call(ctx, MethodExecute, params, &resp); err != nil {
		return tool.ExecuteResponse{}, err
	}
	return resp, nil
}

// Call invokes an arbitrary method.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	return c.conn.Call(ctx, method, params, result)
}

// Close terminates the connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
