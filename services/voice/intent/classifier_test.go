// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the keyword intent classifier

package intent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_EmbeddedRules(t *testing.T) {
	c, err := NewClassifier()
	require.NoError(t, err)

	tests := []struct {
		name      string
		utterance string
		wantTool  Tool
		wantMatch bool
	}{
		{"balance", "what's my balance", ToolBalance, true},
		{"balance via bank", "how much is in my bank account", ToolBalance, true},
		{"balance misrecognition", "what's in my styling account", ToolBalance, true},
		{"debt", "how much do I owe", ToolDebt, true},
		{"debt via card", "what's on my credit card", ToolDebt, true},
		{"debt misrecognition", "how much is on my broccoli card", ToolDebt, true},
		{"transactions", "read my recent transactions", ToolTransactions, true},
		{"transactions via spending", "what have I been spending", ToolTransactions, true},
		{"summary", "give me a summary of my finances", ToolSummary, true},
		{"summary via net worth", "what's my net worth", ToolSummary, true},
		{"case insensitive", "WHAT IS MY BALANCE", ToolBalance, true},
		{"chitchat", "tell me a joke", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, ok := c.Classify(tt.utterance)
			assert.Equal(t, tt.wantMatch, ok)
			assert.Equal(t, tt.wantTool, tool)
		})
	}
}

// Overlapping vocabularies must resolve by group priority, not by
// whichever keyword happens to appear first in the sentence.
func TestClassify_PriorityResolvesOverlap(t *testing.T) {
	c, err := NewClassifier()
	require.NoError(t, err)

	tests := []struct {
		name      string
		utterance string
		want      Tool
	}{
		{"spend beats account", "how much did I spend from my account", ToolTransactions},
		{"debt beats balance", "what's the balance on my credit card", ToolDebt},
		{"owe beats money", "how much money do I owe", ToolDebt},
		{"balance beats summary", "summarize my bank balance", ToolBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, ok := c.Classify(tt.utterance)
			require.True(t, ok)
			assert.Equal(t, tt.want, tool)
		})
	}
}

func TestNewClassifierFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	custom := `groups:
  - tool: balance
    priority: 1
    keywords: ["doubloons"]
`
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	c, err := NewClassifierFromFile(path)
	require.NoError(t, err)

	tool, ok := c.Classify("how many doubloons do I have")
	require.True(t, ok)
	assert.Equal(t, ToolBalance, tool)

	_, ok = c.Classify("what's my balance")
	assert.False(t, ok, "custom table should fully replace the embedded one")
}

func TestNewClassifierFromFile_Missing(t *testing.T) {
	_, err := NewClassifierFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestReload_KeepsTableOnBadFile(t *testing.T) {
	c, err := NewClassifier()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("groups: [{tool: teleport}]"), 0o644))

	assert.Error(t, c.Reload(path))

	tool, ok := c.Classify("what's my balance")
	require.True(t, ok, "previous table must survive a failed reload")
	assert.Equal(t, ToolBalance, tool)
}

func TestPrepare_Validation(t *testing.T) {
	tests := []struct {
		name string
		file RuleFile
	}{
		{"no groups", RuleFile{}},
		{"no keywords", RuleFile{Groups: []Group{{Tool: ToolBalance}}}},
		{"blank keyword", RuleFile{Groups: []Group{{Tool: ToolBalance, Keywords: []string{"  "}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.file.Prepare())
		})
	}
}

func TestPrepare_SortsAndLowercases(t *testing.T) {
	file := RuleFile{Groups: []Group{
		{Tool: ToolSummary, Priority: 10, Keywords: []string{"Summary"}},
		{Tool: ToolTransactions, Priority: 40, Keywords: []string{" SPENT "}},
	}}
	require.NoError(t, file.Prepare())

	assert.Equal(t, ToolTransactions, file.Groups[0].Tool)
	assert.Equal(t, "spent", file.Groups[0].Keywords[0])
}
