package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON_PlainObject(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, DecodeJSON(`{"name": "flow"}`, &out))
	assert.Equal(t, "flow", out.Name)
}

func TestDecodeJSON_MarkdownFence(t *testing.T) {
	completion := "Here is the result:\n```json\n[{\"name\": \"a\"}, {\"name\": \"b\"}]\n```\nLet me know if you need more."
	var out []struct {
		Name string `json:"name"`
	}
	require.NoError(t, DecodeJSON(completion, &out))
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[1].Name)
}

func TestDecodeJSON_PreambleAndTrailer(t *testing.T) {
	var out map[string]int
	require.NoError(t, DecodeJSON(`Sure! {"count": 3} hope that helps`, &out))
	assert.Equal(t, 3, out["count"])
}

func TestDecodeJSON_BracketsInsideStrings(t *testing.T) {
	var out map[string]string
	require.NoError(t, DecodeJSON(`{"text": "a quote with } and { inside"}`, &out))
	assert.Equal(t, "a quote with } and { inside", out["text"])
}

func TestDecodeJSON_NestedObjects(t *testing.T) {
	var out struct {
		Outer struct {
			Inner string `json:"inner"`
		} `json:"outer"`
	}
	require.NoError(t, DecodeJSON(`noise {"outer": {"inner": "x"}} noise`, &out))
	assert.Equal(t, "x", out.Outer.Inner)
}

func TestDecodeJSON_NoJSON(t *testing.T) {
	var out map[string]any
	assert.Error(t, DecodeJSON("I could not produce any structured output.", &out))
	assert.Error(t, DecodeJSON("", &out))
}

func TestDecodeJSON_Unbalanced(t *testing.T) {
	var out map[string]any
	assert.Error(t, DecodeJSON(`{"name": "truncated`, &out))
}
