package tools

import "fmt"

// ValidateCall checks tool call arguments against the tool's schema
// before dispatch. Unknown tools and shape mismatches come back as
// classified errors so the loop can report them to the model.
func ValidateCall(reg *Registry, name string, args map[string]interface{}) error {
	if reg == nil {
		return NewError(KindInternal, name, "tool registry unavailable")
	}
	schema, ok := reg.Schema(name)
	if !ok {
		return NewError(KindNotFound, name, fmt.Sprintf("unknown tool %q", name))
	}
	return validateAgainstSchema(schema, args)
}

func validateAgainstSchema(schema Schema, args map[string]interface{}) error {
	for _, field := range schema.Parameters {
		val, exists := args[field.Name]
		if field.Required && !exists {
			return NewError(KindInvalidArguments, schema.Name, fmt.Sprintf("%s is required", field.Name))
		}
		if !exists {
			continue
		}
		switch field.Type {
		case "string":
			if _, ok := val.(string); !ok {
				return NewError(KindInvalidArguments, schema.Name, fmt.Sprintf("%s must be string", field.Name))
			}
		case "boolean":
			if _, ok := val.(bool); !ok {
				return NewError(KindInvalidArguments, schema.Name, fmt.Sprintf("%s must be boolean", field.Name))
			}
		case "array":
			if _, ok := val.([]interface{}); !ok {
				return NewError(KindInvalidArguments, schema.Name, fmt.Sprintf("%s must be array", field.Name))
			}
		case "integer":
			switch val.(type) {
			case float64, int, int64:
			default:
				return NewError(KindInvalidArguments, schema.Name, fmt.Sprintf("%s must be integer", field.Name))
			}
		}
		if len(field.Enum) > 0 {
			s, _ := val.(string)
			valid := false
			for _, allowed := range field.Enum {
				if s == allowed {
					valid = true
					break
				}
			}
			if !valid {
				return NewError(KindInvalidArguments, schema.Name, fmt.Sprintf("%s must be one of %v", field.Name, field.Enum))
			}
		}
	}
	return nil
}
