package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/weval-org/dtef/schemas"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// recordSchema is the compiled JSON Schema for stored run records.
var recordSchema *jsonschema.Schema

func init() {
	recordSchema = mustCompileSchema(schemas.RecordSchemaJSON, "record.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateRecordBytes validates a results file body against the record
// schema. The body may hold one record or an array of records; errors for
// array elements are prefixed with the element index. A nil result means
// the body is valid.
func ValidateRecordBytes(data []byte) []string {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []string{fmt.Sprintf("JSON parse error: %v", err)}
	}

	items, ok := doc.([]any)
	if !ok {
		return validateAgainstSchema(recordSchema, doc, "")
	}
	var errs []string
	for i, item := range items {
		errs = append(errs, validateAgainstSchema(recordSchema, item, fmt.Sprintf("[%d]", i))...)
	}
	return errs
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any, prefix string) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("%sschema: %v", prefix, err)}
	}
	var errs []string
	collectSchemaErrors(ve, prefix, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, prefix string, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s%s: %s", prefix, loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, prefix, errs)
	}
}
