package mcpschema

import (
	"reflect"
	"strings"
)

// ReflectToInputSchema converts a struct definition into an MCP tool input
// schema using reflection metadata. It parses json and jsonschema tags to
// construct the JSON-schema object the MCP SDK advertises for the tool.
// Pointer fields become optional nullable properties.
func ReflectToInputSchema(structValue interface{}) map[string]any {
	structType := reflect.TypeOf(structValue)
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}

	properties := map[string]any{}
	required := []string{}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		jsonTag := field.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}
		name := strings.Split(jsonTag, ",")[0]

		jsSchema := field.Tag.Get("jsonschema")
		desc := extractDescription(jsSchema)

		baseType := field.Type
		optional := baseType.Kind() == reflect.Ptr
		if optional {
			baseType = baseType.Elem()
		}

		var typeName string
		switch baseType.Kind() {
		case reflect.String:
			typeName = "string"
		case reflect.Int, reflect.Int64:
			typeName = "integer"
		case reflect.Float32, reflect.Float64:
			typeName = "number"
		case reflect.Bool:
			typeName = "boolean"
		default:
			continue
		}

		prop := map[string]any{}
		if optional {
			prop["type"] = []string{typeName, "null"}
		} else {
			prop["type"] = typeName
		}
		if desc != "" {
			prop["description"] = desc
		}
		properties[name] = prop

		if strings.HasPrefix(jsSchema, "required") {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// extractDescription returns everything after "description=". The
// description must be the last option in the tag since it may itself
// contain commas.
func extractDescription(tag string) string {
	if idx := strings.Index(tag, "description="); idx >= 0 {
		return tag[idx+len("description="):]
	}
	return ""
}
