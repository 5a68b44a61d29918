package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBehaviours_Text(t *testing.T) {
	out, err := executeRoot(t, "behaviours")

	require.NoError(t, err)
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "math::sqrt")
	assert.Contains(t, out, "connector::counting_connector")
	assert.Contains(t, out, "relation-component")
}

func TestBehaviours_JSON(t *testing.T) {
	out, err := executeRoot(t, "behaviours", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data []BindingInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 9)

	kinds := make(map[string]int)
	for _, b := range resp.Data {
		kinds[b.Kind]++
	}
	assert.Equal(t, map[string]int{
		"entity":             5,
		"entity-component":   1,
		"relation":           2,
		"relation-component": 1,
	}, kinds)
	assert.Equal(t, BindingInfo{Kind: "entity", Owner: "logical::not", Behaviour: "logical::not"}, resp.Data[0])
}

func TestBehaviours_KindFilter(t *testing.T) {
	out, err := executeRoot(t, "behaviours", "--kind", "entity-component", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data []BindingInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []BindingInfo{
		{Kind: "entity-component", Owner: "core::counter", Behaviour: "core::counter"},
	}, resp.Data)
}

func TestBehaviours_UnknownKind(t *testing.T) {
	_, err := executeRoot(t, "behaviours", "--kind", "widget")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
