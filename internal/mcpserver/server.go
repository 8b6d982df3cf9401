package mcpserver

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	log "github.com/tuannvm/jira-reporter/internal/logging"
	"github.com/tuannvm/jira-reporter/internal/report"
)

// ServerName is advertised to MCP clients during initialization.
const ServerName = "Jira Reporter"

const shutdownTimeout = 5 * time.Second

// Server exposes the report pipeline as MCP tools.
type Server struct {
	mcp      *server.MCPServer
	gen      *report.Generator
	fallback report.Sampler
}

// New registers the reporting tools on a fresh MCP server. fallback is used
// for summaries when the connected client cannot sample; it may be nil.
func New(gen *report.Generator, fallback report.Sampler, version string) *Server {
	s := &Server{
		mcp: server.NewMCPServer(ServerName, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
			server.WithInstructions("Generates plain-text reports of Jira issues and can summarize them with the client's model."),
		),
		gen:      gen,
		fallback: fallback,
	}
	s.mcp.EnableSampling()
	s.mcp.AddTool(generateReportTool(), s.handleGenerateReport)
	s.mcp.AddTool(findDelayedIssuesTool(), s.handleFindDelayedIssues)
	return s
}

// MCPServer returns the underlying server, mainly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

func generateReportTool() mcp.Tool {
	return mcp.NewTool("generate_report",
		mcp.WithDescription("Generates a report of Jira issues based on a JQL query. "+
			"Optionally summarizes the report using the client's LLM."),
		mcp.WithTitleAnnotation("Generate Jira report"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithString("jql_query",
			mcp.Description("The JQL query to select issues. Defaults to issues updated in the last 7 days."),
		),
		mcp.WithString("project_key",
			mcp.Description("Optional Jira project key to limit the search scope (e.g. 'PROJ')."),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of issues to include in the report."),
			mcp.DefaultNumber(50),
			mcp.Min(1),
			mcp.Max(1000),
		),
		mcp.WithBoolean("summarize",
			mcp.Description("Whether to ask the client's LLM to summarize the report."),
			mcp.DefaultBool(false),
		),
	)
}

func findDelayedIssuesTool() mcp.Tool {
	return mcp.NewTool("find_delayed_issues",
		mcp.WithDescription("Finds unresolved Jira issues past their due date. "+
			"Optionally infers the likely delay reason of each issue from its recent comments."),
		mcp.WithTitleAnnotation("Find delayed Jira issues"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithString("project_key",
			mcp.Description("Optional Jira project key to limit the search scope (e.g. 'PROJ')."),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of delayed issues to include in the report."),
			mcp.DefaultNumber(15),
			mcp.Min(1),
			mcp.Max(1000),
		),
		mcp.WithBoolean("explain_delay",
			mcp.Description("Whether to ask the client's LLM for the likely delay reason of each issue."),
			mcp.DefaultBool(false),
		),
	)
}

func (s *Server) handleGenerateReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := report.ParseReportArgs(request.GetArguments())
	if err != nil {
		return toolResult(report.FailureResult(err)), nil
	}
	var sampler report.Sampler
	if req.Summarize {
		sampler = s.samplerFor(ctx)
	}
	return toolResult(s.gen.Generate(ctx, req, sampler)), nil
}

func (s *Server) handleFindDelayedIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := report.ParseDelayedArgs(request.GetArguments())
	if err != nil {
		return toolResult(report.FailureResult(err)), nil
	}
	var sampler report.Sampler
	if req.ExplainDelay {
		sampler = s.samplerFor(ctx)
	}
	return toolResult(s.gen.FindDelayed(ctx, req, sampler)), nil
}

type reportResult interface {
	IsError() bool
	Text() string
}

func toolResult(r reportResult) *mcp.CallToolResult {
	if r.IsError() {
		return mcp.NewToolResultError(r.Text())
	}
	return mcp.NewToolResultText(r.Text())
}

// samplerFor picks the client's model when the session can sample and the
// server-side fallback otherwise.
func (s *Server) samplerFor(ctx context.Context) report.Sampler {
	if clientCanSample(ctx) {
		return &sessionSampler{srv: s.mcp}
	}
	if s.fallback != nil {
		log.Infof("Client does not support sampling, using server-side LLM")
		return s.fallback
	}
	return nil
}

func clientCanSample(ctx context.Context) bool {
	session := server.ClientSessionFromContext(ctx)
	if session == nil {
		return false
	}
	if info, ok := session.(server.SessionWithClientInfo); ok && info.GetClientCapabilities().Sampling == nil {
		return false
	}
	if _, ok := session.(server.SessionWithSampling); ok {
		return true
	}
	return server.InProcessSamplingHandlerFromContext(ctx) != nil
}

// sessionSampler asks the connected MCP client to run the completion.
type sessionSampler struct {
	srv *server.MCPServer
}

func (s *sessionSampler) Sample(ctx context.Context, prompt string, maxTokens int) (string, error) {
	log.Infof("Requesting completion from client LLM")
	res, err := s.srv.RequestSampling(ctx, mcp.CreateMessageRequest{
		CreateMessageParams: mcp.CreateMessageParams{
			Messages: []mcp.SamplingMessage{{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(prompt),
			}},
			MaxTokens: maxTokens,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "client sampling")
	}
	return sampledText(res.Content)
}

func sampledText(content any) (string, error) {
	switch c := content.(type) {
	case mcp.TextContent:
		return c.Text, nil
	case *mcp.TextContent:
		return c.Text, nil
	case string:
		return c, nil
	case map[string]any:
		if text, ok := c["text"].(string); ok {
			return text, nil
		}
	}
	return "", errors.Errorf("client returned non-text content %T", content)
}

// Serve runs the server on the named transport until ctx is done.
// addr is ignored for stdio.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	switch strings.ToLower(transport) {
	case "", "stdio":
		log.Infof("Starting %s MCP server on stdio", ServerName)
		stdio := server.NewStdioServer(s.mcp)
		stdio.SetErrorLogger(zap.NewStdLog(log.Logger.Desugar()))
		err := stdio.Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return errors.Wrap(err, "stdio server")
		}
		return nil
	case "sse":
		sse := server.NewSSEServer(s.mcp)
		return serveHTTP(ctx, "SSE", addr, sse.Start, sse.Shutdown)
	case "http":
		streamable := server.NewStreamableHTTPServer(s.mcp)
		return serveHTTP(ctx, "streamable HTTP", addr, streamable.Start, streamable.Shutdown)
	default:
		return errors.Errorf("unsupported transport %q (want stdio, sse or http)", transport)
	}
}

func serveHTTP(ctx context.Context, name, addr string, start func(string) error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting %s MCP server on %s", name, addr)
		errCh <- start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "%s server", name)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Infof("Shutting down %s MCP server...", name)
	if err := shutdown(shutdownCtx); err != nil {
		return errors.Wrapf(err, "shutdown %s server", name)
	}
	return nil
}
