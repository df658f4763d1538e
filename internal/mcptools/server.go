// Package mcptools exposes email validation as MCP tools so agents and
// backends speaking MCP can check addresses without a bespoke client.
package mcptools

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/dgellow/mailgate/internal/config"
	"github.com/dgellow/mailgate/internal/emailutil"
	"github.com/dgellow/mailgate/internal/log"
	"github.com/dgellow/mailgate/internal/validation"
)

const (
	ToolValidateEmail      = "validate_email"
	ToolNormalizeEmail     = "normalize_email"
	ToolIsDisposableDomain = "is_disposable_domain"
)

// mcpTransport is satisfied by both mcpserver.SSEServer and mcpserver.StreamableHTTPServer.
type mcpTransport interface {
	http.Handler
	Shutdown(context.Context) error
}

// Server serves the email tools over one MCP transport
type Server struct {
	name            string
	validator       *validation.Validator
	checkDisposable bool

	mcpServer *mcpserver.MCPServer
	transport mcpTransport
}

// NewServer builds the MCP server and its transport. The transport answers
// under /<name>/.
func NewServer(name string, transportType config.MCPTransportType, baseURL string, validator *validation.Validator, checkDisposable bool) *Server {
	s := &Server{
		name:            name,
		validator:       validator,
		checkDisposable: checkDisposable,
	}

	s.mcpServer = mcpserver.NewMCPServer(name, "1.0.0",
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	s.registerTools()

	switch transportType {
	case config.MCPTransportSSE:
		s.transport = mcpserver.NewSSEServer(s.mcpServer,
			mcpserver.WithStaticBasePath(name),
			mcpserver.WithBaseURL(baseURL),
		)
	default:
		s.transport = mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath("/"+name+"/"),
		)
	}

	log.LogInfoWithFields("mcptools", "MCP tool server created", map[string]any{
		"name":      name,
		"transport": string(transportType),
	})

	return s
}

// Handler returns the transport handler to mount at /<name>/
func (s *Server) Handler() http.Handler {
	return s.transport
}

// Shutdown closes open MCP sessions
func (s *Server) Shutdown(ctx context.Context) error {
	return s.transport.Shutdown(ctx)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(ToolValidateEmail,
			mcp.WithDescription("Validate an email address for account registration. Normalizes it, checks RFC 5322 syntax and rejects known disposable providers. Returns isValid, normalizedEmail and a user-facing error."),
			mcp.WithString("email", mcp.Required(), mcp.Description("The address to validate")),
			mcp.WithBoolean("check_disposable", mcp.Description("Reject disposable email providers (defaults to the server setting)")),
		),
		s.handleValidateEmail,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(ToolNormalizeEmail,
			mcp.WithDescription("Normalize an email address: trim, apply Unicode NFKC, lowercase the domain and drop trailing dots. Does not validate."),
			mcp.WithString("email", mcp.Required(), mcp.Description("The address to normalize")),
		),
		s.handleNormalizeEmail,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(ToolIsDisposableDomain,
			mcp.WithDescription("Check whether a domain belongs to a known disposable email provider. Exact match only; subdomains are not covered."),
			mcp.WithString("domain", mcp.Required(), mcp.Description("Domain to check, e.g. mailinator.com")),
		),
		s.handleIsDisposableDomain,
	)
}

func (s *Server) handleValidateEmail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	email, err := request.RequireString("email")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	checkDisposable := request.GetBool("check_disposable", s.checkDisposable)

	result := s.validator.Validate(email, validation.WithDisposableCheck(checkDisposable))
	log.LogDebugWithFields("mcptools", "validate_email called", map[string]any{
		"valid":  result.Valid,
		"reason": result.Reason,
	})
	return jsonResult(result)
}

func (s *Server) handleNormalizeEmail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	email, err := request.RequireString("email")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(emailutil.Normalize(email)), nil
}

func (s *Server) handleIsDisposableDomain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain, err := request.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"domain":     domain,
		"disposable": s.validator.IsDisposable(domain),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
