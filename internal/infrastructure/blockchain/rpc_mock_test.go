package blockchain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"chain-explorer/internal/infrastructure/logger"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const mockRPCURL = "http://node.test/rpc"

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcHandler func(params []json.RawMessage) (interface{}, error)

type mockRPC struct {
	t        *testing.T
	handlers map[string]rpcHandler
	calls    []rpcRequest
}

// newMockClient returns a connected EthereumClient whose requests are answered by handlers
func newMockClient(t *testing.T, handlers map[string]rpcHandler) (*EthereumClient, *mockRPC) {
	t.Helper()

	mock := &mockRPC{t: t, handlers: handlers}
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, mockRPCURL, mock.respond)

	client := NewEthereumClient(mockRPCURL, 5*time.Second, logger.NewNopLogger(),
		WithHTTPClient(&http.Client{Transport: transport}))
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(client.Close)

	return client, mock
}

func (m *mockRPC) respond(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}

	var call rpcRequest
	if err := json.Unmarshal(body, &call); err != nil {
		return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
	}
	m.calls = append(m.calls, call)

	resp := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      call.ID,
	}

	handler, ok := m.handlers[call.Method]
	if !ok {
		resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found: " + call.Method}
		return httpmock.NewJsonResponse(http.StatusOK, resp)
	}

	result, err := handler(call.Params)
	if err != nil {
		resp["error"] = map[string]interface{}{"code": -32000, "message": err.Error()}
	} else {
		resp["result"] = result
	}
	return httpmock.NewJsonResponse(http.StatusOK, resp)
}

func (m *mockRPC) methodCalls(method string) []rpcRequest {
	out := make([]rpcRequest, 0)
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
