package common

import (
	"context"

	"github.com/go-faster/errors"
	"trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/tuannvm/jira-reporter/internal/config"
	log "github.com/tuannvm/jira-reporter/internal/logging"
)

// SetupA2AClient creates and configures an A2A client with appropriate authentication
func SetupA2AClient(cfg *config.Config, targetURL string) (*client.A2AClient, error) {
	var (
		a2aClient *client.A2AClient
		err       error
	)

	switch cfg.AuthType {
	case "apikey":
		log.Infof("Using API key authentication for A2A client (API key length: %d)", len(cfg.APIKey))
		a2aClient, err = client.NewA2AClient(targetURL, client.WithAPIKeyAuth(cfg.APIKey, "X-API-Key"))
	case "jwt":
		log.Infof("Using JWT authentication for A2A client")
		a2aClient, err = client.NewA2AClient(targetURL)
	default:
		log.Warnf("No authentication configured for A2A client")
		a2aClient, err = client.NewA2AClient(targetURL)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create A2A client")
	}
	return a2aClient, nil
}

// SendTask synchronously sends a task via JSON-RPC and returns the
// consolidated reply: artifact parts followed by the final status message.
// A task that ended in the failed state is returned as an error carrying the
// agent's message.
func SendTask(ctx context.Context, a2aClient *client.A2AClient, params protocol.SendTaskParams) (protocol.Message, error) {
	task, err := a2aClient.SendTasks(ctx, params)
	if err != nil {
		return protocol.Message{}, errors.Wrap(err, "SendTasks RPC failed")
	}

	var parts []protocol.Part
	for _, art := range task.Artifacts {
		parts = append(parts, art.Parts...)
	}
	if task.Status.State == protocol.TaskState(StateFailed) {
		msg := "task failed"
		if task.Status.Message != nil {
			msg = MessageText(*task.Status.Message)
		}
		return protocol.Message{}, errors.New(msg)
	}
	if len(parts) == 0 && task.Status.Message != nil {
		parts = task.Status.Message.Parts
	}
	return protocol.Message{Parts: parts}, nil
}
