package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExtractSpecText flattens an OpenAPI document into plain text for
// embedding: the info block, every path with its operations, parameters
// and responses, and all schema definitions. Supports OpenAPI 2.x and 3.x
// in JSON or YAML; anything unparseable passes through as raw text.
func ExtractSpecText(raw string) string {
	data, ok := parseSpec(raw)
	if !ok {
		return raw
	}

	var parts []string

	if info, ok := data["info"].(map[string]any); ok {
		parts = appendString(parts, info["title"])
		parts = appendString(parts, info["description"])
	}

	if paths, ok := data["paths"].(map[string]any); ok {
		for _, path := range sortedKeys(paths) {
			parts = append(parts, "Path: "+path)

			opsMap, ok := paths[path].(map[string]any)
			if !ok {
				continue
			}

			for _, method := range sortedKeys(opsMap) {
				spec, ok := opsMap[method].(map[string]any)
				if !ok {
					continue
				}

				parts = append(parts, "Method: "+method)
				parts = appendString(parts, spec["summary"])
				parts = appendString(parts, spec["description"])

				if tags, ok := spec["tags"].([]any); ok {
					for _, tag := range tags {
						parts = appendString(parts, tag)
					}
				}

				parts = extractParameters(parts, spec["parameters"])

				if body, ok := spec["requestBody"].(map[string]any); ok {
					if desc, ok := body["description"].(string); ok && desc != "" {
						parts = append(parts, "Request: "+desc)
					}
				}

				parts = extractResponses(parts, spec["responses"])
			}
		}
	}

	if components, ok := data["components"].(map[string]any); ok {
		if schemas, ok := components["schemas"].(map[string]any); ok {
			parts = extractSchemas(parts, schemas)
		}
	}

	// OpenAPI 2.x keeps schemas under definitions.
	if definitions, ok := data["definitions"].(map[string]any); ok {
		parts = extractSchemas(parts, definitions)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}

	text := strings.Join(out, "\n")
	if strings.TrimSpace(text) == "" {
		return raw
	}

	return text
}

// parseSpec tries JSON first, then YAML.
func parseSpec(raw string) (map[string]any, bool) {
	var data map[string]any

	if err := json.Unmarshal([]byte(raw), &data); err == nil {
		return data, true
	}

	if err := yaml.Unmarshal([]byte(raw), &data); err == nil && data != nil {
		return data, true
	}

	return nil, false
}

func extractParameters(parts []string, v any) []string {
	params, ok := v.([]any)
	if !ok {
		return parts
	}

	for _, p := range params {
		param, ok := p.(map[string]any)
		if !ok {
			continue
		}

		if name, ok := param["name"].(string); ok && name != "" {
			parts = append(parts, "Parameter: "+name)
		}

		parts = appendString(parts, param["description"])
	}

	return parts
}

func extractResponses(parts []string, v any) []string {
	responses, ok := v.(map[string]any)
	if !ok {
		return parts
	}

	for _, code := range sortedKeys(responses) {
		resp, ok := responses[code].(map[string]any)
		if !ok {
			continue
		}

		if desc, ok := resp["description"].(string); ok && desc != "" {
			parts = append(parts, fmt.Sprintf("Response %s: %s", code, desc))
		}
	}

	return parts
}

func extractSchemas(parts []string, schemas map[string]any) []string {
	for _, name := range sortedKeys(schemas) {
		schema, ok := schemas[name].(map[string]any)
		if !ok {
			continue
		}

		parts = append(parts, "Schema: "+name)
		parts = appendString(parts, schema["description"])

		props, ok := schema["properties"].(map[string]any)
		if !ok {
			continue
		}

		for _, propName := range sortedKeys(props) {
			prop, ok := props[propName].(map[string]any)
			if !ok {
				continue
			}

			line := "Property: " + propName
			if typ, ok := prop["type"].(string); ok && typ != "" {
				line += " (" + typ + ")"
			}

			parts = append(parts, line)
			parts = appendString(parts, prop["description"])
		}
	}

	return parts
}

// sortedKeys keeps the flattened text deterministic so identical inputs
// always chunk identically.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func appendString(parts []string, v any) []string {
	if s, ok := v.(string); ok && s != "" {
		parts = append(parts, s)
	}

	return parts
}
