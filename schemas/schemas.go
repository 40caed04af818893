// Package schemas embeds the JSON Schemas used to validate stored files.
package schemas

import _ "embed"

// RecordSchemaJSON is the JSON Schema for a stored evaluation run record.
//
//go:embed record.schema.json
var RecordSchemaJSON string
