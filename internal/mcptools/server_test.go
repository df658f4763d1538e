package mcptools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgellow/mailgate/internal/config"
	"github.com/dgellow/mailgate/internal/emailutil"
	"github.com/dgellow/mailgate/internal/validation"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	v := validation.New(emailutil.NewDomainSet("burner.example"))
	s := NewServer("mailgate", config.MCPTransportStreamable, "http://localhost:8080", v, true)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestValidateEmailTool(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		args      map[string]any
		wantValid bool
		wantEmail string
		wantError string
	}{
		{
			name:      "valid address is normalized",
			args:      map[string]any{"email": "Someone@Example.COM."},
			wantValid: true,
			wantEmail: "Someone@example.com",
		},
		{
			name:      "malformed address",
			args:      map[string]any{"email": "nope"},
			wantError: validation.MessageInvalid,
		},
		{
			name:      "disposable rejected by default",
			args:      map[string]any{"email": "x@mailinator.com"},
			wantError: validation.MessageDisposable,
		},
		{
			name:      "extra disposable domain rejected",
			args:      map[string]any{"email": "x@burner.example"},
			wantError: validation.MessageDisposable,
		},
		{
			name:      "disposable check can be turned off",
			args:      map[string]any{"email": "x@mailinator.com", "check_disposable": false},
			wantValid: true,
			wantEmail: "x@mailinator.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleValidateEmail(context.Background(), callRequest(ToolValidateEmail, tt.args))
			require.NoError(t, err)
			assert.False(t, result.IsError)

			var got validation.Result
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantEmail, got.NormalizedEmail)
			assert.Equal(t, tt.wantError, got.Error)
		})
	}
}

func TestValidateEmailToolMissingArgument(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleValidateEmail(context.Background(), callRequest(ToolValidateEmail, map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestNormalizeEmailTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleNormalizeEmail(context.Background(), callRequest(ToolNormalizeEmail, map[string]any{"email": "  A@B.COM.. "}))
	require.NoError(t, err)
	assert.Equal(t, "A@b.com", resultText(t, result))
}

func TestIsDisposableDomainTool(t *testing.T) {
	s := newTestServer(t)

	for domain, want := range map[string]bool{
		"mailinator.com":     true,
		"Burner.Example":     true,
		"example.com":        false,
		"sub.mailinator.com": false,
	} {
		t.Run(domain, func(t *testing.T) {
			result, err := s.handleIsDisposableDomain(context.Background(), callRequest(ToolIsDisposableDomain, map[string]any{"domain": domain}))
			require.NoError(t, err)

			var got struct {
				Domain     string `json:"domain"`
				Disposable bool   `json:"disposable"`
			}
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
			assert.Equal(t, domain, got.Domain)
			assert.Equal(t, want, got.Disposable)
		})
	}
}

func TestSSETransport(t *testing.T) {
	v := validation.New(nil)
	s := NewServer("mailgate", config.MCPTransportSSE, "http://localhost:8080", v, true)
	assert.NotNil(t, s.Handler())
}
