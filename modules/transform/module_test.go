package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgridgo/internal/node"
)

func TestTransform_PicksAndRenames(t *testing.T) {
	t.Parallel()

	nc := &node.Context{Inputs: map[string]any{
		"value": map[string]any{
			"title":  "hello",
			"body":   "world",
			"secret": "drop me",
		},
		"fields": "title, body:content",
	}}

	out, err := run(context.Background(), nc)
	require.NoError(t, err)

	got, ok := out["value"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"title": "hello", "content": "world"}, got)
}

func TestTransform_EmptySpecPassesThrough(t *testing.T) {
	t.Parallel()

	obj := map[string]any{"a": 1.0, "b": 2.0}
	nc := &node.Context{Inputs: map[string]any{"value": obj}}

	out, err := run(context.Background(), nc)
	require.NoError(t, err)
	assert.Equal(t, obj, out["value"])
}

func TestTransform_MissingKeysAreSkipped(t *testing.T) {
	t.Parallel()

	nc := &node.Context{Inputs: map[string]any{
		"value":  map[string]any{"a": 1.0},
		"fields": "a, ghost",
	}}

	out, err := run(context.Background(), nc)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, out["value"])
}

func TestTransform_RejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := run(context.Background(), &node.Context{Inputs: map[string]any{}})
	assert.Error(t, err, "missing value")

	_, err = run(context.Background(), &node.Context{Inputs: map[string]any{"value": "not an object"}})
	assert.Error(t, err, "non-object value")
}
