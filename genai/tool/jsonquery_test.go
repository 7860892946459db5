package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONQuery_MatchesExpression(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r, t.TempDir())

	out, err := r.Execute(context.Background(), "json_query", map[string]interface{}{
		"document": `{"items":[{"name":"a"},{"name":"b"}]}`,
		"path":     "$.items[1].name",
	})
	assert.NoError(t, err)
	assert.Contains(t, out, "b")
}

func TestJSONQuery_InvalidDocumentErrors(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r, t.TempDir())

	_, err := r.Execute(context.Background(), "json_query", map[string]interface{}{
		"document": `not json`,
		"path":     "$.a",
	})
	assert.Error(t, err)
}

func TestJSONQuery_MissingPathErrors(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r, t.TempDir())

	_, err := r.Execute(context.Background(), "json_query", map[string]interface{}{
		"document": `{"a":1}`,
	})
	assert.Error(t, err)
}
