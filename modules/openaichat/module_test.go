package openaichat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgridgo/internal/node"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/workflow"
)

// stubOpenAI serves a canned chat completion and records the request.
func stubOpenAI(t *testing.T, reply string) (*openai.Client, *openai.ChatCompletionRequest) {
	t.Helper()
	var captured openai.ChatCompletionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: reply,
				},
			}},
			Usage: openai.Usage{TotalTokens: 42},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(config), &captured
}

func newExecutor(t *testing.T, client *openai.Client) node.Executor {
	t.Helper()
	r := registry.New()
	require.NoError(t, (&Module{Client: client}).Register(r))
	exec, ok := r.NewExecutor(&workflow.Node{ID: "chat", Type: "openai_chat"})
	require.True(t, ok)
	return exec
}

func TestOpenAIChat_ReturnsReplyAndUsage(t *testing.T) {
	t.Parallel()

	client, captured := stubOpenAI(t, "the answer")
	exec := newExecutor(t, client)

	out, err := exec.Execute(context.Background(), &node.Context{Inputs: map[string]any{
		"prompt": "what is the question?",
		"system": "be brief",
		"model":  "gpt-test",
	}})
	require.NoError(t, err)

	assert.Equal(t, "the answer", out["reply"])
	assert.Equal(t, float64(42), out["total_tokens"])

	assert.Equal(t, "gpt-test", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, captured.Messages[0].Role)
	assert.Equal(t, "be brief", captured.Messages[0].Content)
	assert.Equal(t, "what is the question?", captured.Messages[1].Content)
}

func TestOpenAIChat_DefaultsModel(t *testing.T) {
	t.Parallel()

	client, captured := stubOpenAI(t, "ok")
	exec := newExecutor(t, client)

	_, err := exec.Execute(context.Background(), &node.Context{Inputs: map[string]any{
		"prompt": "hi",
	}})
	require.NoError(t, err)
	assert.Equal(t, openai.GPT4oMini, captured.Model)
}

func TestOpenAIChat_RequiresPrompt(t *testing.T) {
	t.Parallel()

	client, _ := stubOpenAI(t, "unused")
	exec := newExecutor(t, client)

	_, err := exec.Execute(context.Background(), &node.Context{Inputs: map[string]any{}})
	assert.Error(t, err)
}

func TestOpenAIChat_RequiresCredentialSource(t *testing.T) {
	t.Parallel()

	// No injected client and no secret source on the context.
	exec := newExecutor(t, nil)

	_, err := exec.Execute(context.Background(), &node.Context{Inputs: map[string]any{
		"prompt": "hi",
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential")
}
