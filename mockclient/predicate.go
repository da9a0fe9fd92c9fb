package mockclient

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// MatchJSONSchema builds a request predicate from a JSON Schema document:
// the decoded request is marshaled to JSON and validated against the
// schema. Schema compilation errors are reported at construction time.
//
// A request that cannot be marshaled to JSON simply does not match.
func MatchJSONSchema[Req any](schemaJSON string) (func(Req) bool, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile JSON schema: %w", err)
	}
	return func(req Req) bool {
		data, err := json.Marshal(req)
		if err != nil {
			return false
		}
		result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return false
		}
		return result.Valid()
	}, nil
}
