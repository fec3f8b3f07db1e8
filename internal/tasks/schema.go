package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const todosSchemaURL = "todod://schema/todos.json"

// todosSchema describes the payload stored under the "todos" key. Browser
// exports of the same list use identical field names.
const todosSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "text", "completed"],
    "properties": {
      "id": {"type": "integer", "minimum": 1},
      "text": {"type": "string", "minLength": 1},
      "completed": {"type": "boolean"},
      "createdAt": {"type": "string"},
      "dueDate": {
        "oneOf": [
          {"type": "null"},
          {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
        ]
      },
      "dueTime": {
        "oneOf": [
          {"type": "null"},
          {"type": "string", "pattern": "^\\d{1,2}:\\d{2}(:\\d{2})?$"}
        ]
      }
    }
  }
}`

var compiledTodosSchema = jsonschema.MustCompileString(todosSchemaURL, todosSchema)

func validatePayload(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := compiledTodosSchema.Validate(doc); err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	return nil
}
