package tool

import (
	"context"
	"encoding/json"

	"github.com/PaesslerAG/jsonpath"

	"github.com/viant/agentrt/internal/apperr"
)

var jsonQueryDef = toolDefinitionFrom("json_query", "Evaluate a JSONPath expression against a JSON document and return the matched value.", map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"document": map[string]interface{}{"type": "string", "description": "JSON document to query"},
		"path":     map[string]interface{}{"type": "string", "description": "JSONPath expression, e.g. $.items[0].name"},
	},
	"required": []interface{}{"document", "path"},
})

func jsonQueryHandler() Handler {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		document, _ := args["document"].(string)
		path, _ := args["path"].(string)
		if path == "" {
			return "", apperr.Wrap(apperr.ErrToolExecution, "json_query: path is required")
		}

		var data interface{}
		if err := json.Unmarshal([]byte(document), &data); err != nil {
			return "", apperr.Wrap(apperr.ErrToolExecution, "json_query: invalid document: %v", err)
		}

		result, err := jsonpath.Get(path, data)
		if err != nil {
			return "", apperr.Wrap(apperr.ErrToolExecution, "json_query: %v", err)
		}

		encoded, err := json.Marshal(result)
		if err != nil {
			return "", apperr.Wrap(apperr.ErrToolExecution, "json_query: encode result: %v", err)
		}
		return encodeResult(BuiltinResult{Output: string(encoded), Metadata: map[string]int{"exit_code": 0}}), nil
	}
}
