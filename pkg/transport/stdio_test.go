package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConnectStdioEcho launches a tiny shell-based JSON-RPC echo server
// (a read loop that answers every request line with a canned result under
// the request's own id) to exercise the framing and id routing without
// depending on a real MCP server binary.
func TestConnectStdioEcho(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := ConnectStdio(ctx, "sh", []string{"-c", `
		while IFS= read -r line; do
			id=$(echo "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
			printf '{"jsonrpc":"2.0","id":%s,"result":{"ok":true}}\n' "$id"
		done
	`}, nil, StdioOptions{DefaultTimeout: 2 * time.Second})
	require.NoError(t, err)
	defer session.Disconnect()

	result, err := session.Call(ctx, "ping", map[string]string{"a": "b"}, 0)
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(result))
}

func TestConnectStdioStartupFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := ConnectStdio(ctx, "sh", []string{"-c", "exit 1"}, nil, StdioOptions{
		StartupGrace: 200 * time.Millisecond,
	})
	require.Error(t, err)
}

func TestConnectStdioTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := ConnectStdio(ctx, "sh", []string{"-c", "cat >/dev/null"}, nil, StdioOptions{})
	require.NoError(t, err)
	defer session.Disconnect()

	_, err = session.Call(ctx, "slow", nil, 100*time.Millisecond)
	require.Error(t, err)
}
