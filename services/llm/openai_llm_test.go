package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_MODEL", "")

	_, err := NewOpenAIClient()
	assert.Error(t, err)
}

func TestNewOpenAIClient_DefaultsModel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "")

	c, err := NewOpenAIClient()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.model)
}

func TestNewOpenAIClient_RespectsModelOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	c, err := NewOpenAIClient()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.model)
}
