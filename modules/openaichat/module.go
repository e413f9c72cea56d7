// Package openaichat provides the 'openai_chat' node: a single chat
// completion call against the OpenAI API. The API key is resolved through
// the credential capability on the execution context, never stored in the
// workflow definition.
package openaichat

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// SecretName is the secret the node resolves for API access.
const SecretName = "OPENAI_API_KEY"

// Module implements the registry.Module interface for this package. A
// non-nil Client bypasses secret resolution; tests inject one pointed at a
// stub server.
type Module struct {
	Client *openai.Client
}

var definition = &node.Definition{
	Type:        "openai_chat",
	Name:        "OpenAI Chat",
	Description: "Sends a prompt to an OpenAI chat model and returns the reply.",
	Inputs: []workflow.Parameter{
		{Name: "prompt", Type: workflow.TypeString},
		{Name: "system", Type: workflow.TypeString},
		{Name: "model", Type: workflow.TypeString},
	},
	Outputs: []workflow.Parameter{
		{Name: "reply", Type: workflow.TypeString},
		{Name: "total_tokens", Type: workflow.TypeNumber},
	},
	Defaults: map[string]any{"model": openai.GPT4oMini},
	Timeout:  2 * time.Minute,
}

type executor struct {
	client *openai.Client
}

func (e *executor) Definition() *node.Definition { return definition }

func (e *executor) Execute(ctx context.Context, nc *node.Context) (map[string]any, error) {
	prompt, ok := nc.StringInput("prompt")
	if !ok || prompt == "" {
		return nil, fmt.Errorf("openai_chat: required input 'prompt' is missing")
	}
	model, ok := nc.StringInput("model")
	if !ok || model == "" {
		model = openai.GPT4oMini
	}

	client := e.client
	if client == nil {
		if nc.Secrets == nil {
			return nil, fmt.Errorf("openai_chat: no credential source available")
		}
		key, err := nc.Secrets.Secret(ctx, SecretName)
		if err != nil {
			return nil, fmt.Errorf("openai_chat: resolving %s: %w", SecretName, err)
		}
		client = openai.NewClient(key)
	}

	messages := []openai.ChatCompletionMessage{}
	if system, ok := nc.StringInput("system"); ok && system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	ctxlog.FromContext(ctx).Info("Calling chat completion", "model", model)
	nc.ReportProgress(0, "waiting for completion")

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("openai_chat: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai_chat: completion returned no choices")
	}

	nc.ReportProgress(1, "completion received")
	return map[string]any{
		"reply":        resp.Choices[0].Message.Content,
		"total_tokens": float64(resp.Usage.TotalTokens),
	}, nil
}

// Register registers the node type with the engine.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(&registry.Registered{
		Definition: definition,
		New: func(*workflow.Node) node.Executor {
			return &executor{client: m.Client}
		},
	})
}
