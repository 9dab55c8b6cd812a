package discovery

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	responses map[string]json.RawMessage
	errs      map[string]error
	calls     []string
}

func (f *fakeSession) Call(_ context.Context, method string, _ interface{}, _ time.Duration) (json.RawMessage, error) {
	f.calls = append(f.calls, method)
	if err, ok := f.errs[method]; ok {
		return nil, err
	}
	return f.responses[method], nil
}

func (f *fakeSession) Disconnect() error { return nil }

func TestDiscoverFatalOnInitialize(t *testing.T) {
	fs := &fakeSession{
		responses: map[string]json.RawMessage{},
		errs:      map[string]error{"initialize": context.DeadlineExceeded},
	}
	_, err := Discover(context.Background(), fs, time.Second, nil)
	require.Error(t, err)
}

func TestDiscoverDegradesOptionalEndpoints(t *testing.T) {
	fs := &fakeSession{
		responses: map[string]json.RawMessage{
			"initialize": json.RawMessage(`{"protocolVersion":"2025-06-18","serverInfo":{"name":"demo","version":"1.0"},"capabilities":{"tools":{},"prompts":{}}}`),
			"tools/list": json.RawMessage(`{"tools":[{"name":"get_weather","description":"fetch weather","inputSchema":{"type":"object"}}]}`),
		},
		errs: map[string]error{"prompts/list": context.DeadlineExceeded},
	}

	res, err := Discover(context.Background(), fs, time.Second, nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, 1)
	require.Equal(t, "get_weather", res.Tools[0].Name)
	require.Empty(t, res.Prompts)
	require.Len(t, res.Warnings, 1)
	require.Empty(t, res.Resources)
	require.Empty(t, res.ResourceTemplates)
}

func TestDiscoverNormalizesMissingListsToEmpty(t *testing.T) {
	fs := &fakeSession{
		responses: map[string]json.RawMessage{
			"initialize": json.RawMessage(`{"protocolVersion":"2025-06-18","serverInfo":{"name":"demo","version":"1.0"},"capabilities":{}}`),
			"tools/list": json.RawMessage(`{"tools":[]}`),
		},
	}
	res, err := Discover(context.Background(), fs, time.Second, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Tools)
	require.NotNil(t, res.Prompts)
	require.NotNil(t, res.Resources)
	require.NotNil(t, res.ResourceTemplates)
}
