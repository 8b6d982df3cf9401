package common

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"trpc.group/trpc-go/trpc-a2a-go/auth"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	log "github.com/tuannvm/jira-reporter/internal/logging"
)

// Task states reported by the reporter agent.
const (
	StateWorking   = "working"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// SetupServerOptions contains options for setting up an A2A server
type SetupServerOptions struct {
	AgentName    string
	AgentVersion string
	AgentURL     string
	Description  string
	AuthType     string
	JWTSecret    string
	APIKey       string
	Processor    taskmanager.TaskProcessor
	Skills       []server.AgentSkill
}

// SetupServer creates and configures an A2A server with common settings
func SetupServer(opts SetupServerOptions) (*server.A2AServer, error) {
	description := opts.Description
	if description == "" {
		description = fmt.Sprintf("%s agent", opts.AgentName)
	}
	agentCard := server.AgentCard{
		Name:        opts.AgentName,
		Description: StringPtr(description),
		URL:         opts.AgentURL,
		Version:     opts.AgentVersion,
		Provider: &server.AgentProvider{
			Organization: "Jira Reporter",
		},
		DefaultInputModes:  []string{"text", "data"},
		DefaultOutputModes: []string{"text"},
		Skills:             opts.Skills,
	}

	taskManager, err := taskmanager.NewMemoryTaskManager(opts.Processor)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create task manager")
	}

	serverOpts := []server.Option{
		// JSON-RPC at root so A2AClient.SendTasks can POST to "/".
		server.WithJSONRPCEndpoint("/"),
		// Reports with summaries wait on an LLM.
		server.WithReadTimeout(2 * time.Minute),
		server.WithWriteTimeout(2 * time.Minute),
	}

	authProvider, err := newAuthProvider(opts)
	if err != nil {
		return nil, err
	}
	if authProvider != nil {
		serverOpts = append(serverOpts, server.WithAuthProvider(authProvider))
	} else {
		log.Warnf("No authentication configured for %s, running unauthenticated", opts.AgentName)
	}

	srv, err := server.NewA2AServer(agentCard, taskManager, serverOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create server")
	}
	return srv, nil
}

func newAuthProvider(opts SetupServerOptions) (auth.Provider, error) {
	switch opts.AuthType {
	case "", "none":
		return nil, nil
	case "jwt":
		if opts.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET must be set when AUTH_TYPE=jwt")
		}
		log.Infof("Configuring JWT authentication for %s", opts.AgentName)
		return auth.NewJWTAuthProvider([]byte(opts.JWTSecret), "", "", 24*time.Hour), nil
	case "apikey":
		if opts.APIKey == "" {
			return nil, errors.New("API_KEY must be set when AUTH_TYPE=apikey")
		}
		log.Infof("Configuring API key authentication for %s (API key length: %d)", opts.AgentName, len(opts.APIKey))
		return auth.NewAPIKeyAuthProvider(map[string]string{opts.APIKey: "user"}, "X-API-Key"), nil
	default:
		return nil, errors.Errorf("unsupported auth type: %s", opts.AuthType)
	}
}

// StartServer runs the A2A server until ctx is done, then shuts it down.
func StartServer(ctx context.Context, srv *server.A2AServer, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting A2A server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Infof("Shutting down A2A server...")
	if err := srv.Stop(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shutdown server")
	}
	return nil
}
