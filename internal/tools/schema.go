package tools

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"plutus/pkg/errors"
)

// ParamType is the wire type of one tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array" // array of strings
)

// ParamSpec declares one parameter's type and constraints.
type ParamSpec struct {
	Type        ParamType
	Description string
	Required    bool
	Enum        []string // string params only
	GreaterThan *float64 // numeric params only, exclusive lower bound
	MinItems    int      // array params only
}

// Category groups tools for routing and documentation.
type Category string

const (
	CategoryMarketData Category = "market_data"
	CategoryPortfolio  Category = "portfolio"
	CategorySemantic   Category = "semantic"
	CategoryAnalysis   Category = "analysis"
)

// Spec declares one callable tool: its name, parameter schema and whether
// it mutates the portfolio. Immutable after registration.
type Spec struct {
	Name        string
	Description string
	Category    Category
	Params      map[string]ParamSpec

	// Mutating tools are serialized per ticker by the dispatcher; all
	// other tools are read-only and may be retried freely.
	Mutating bool
}

// Args is the validated, normalized argument set handed to a handler.
// Strings are string, numbers are float64, arrays are []string.
type Args map[string]interface{}

// Has reports whether the argument was supplied.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns a string argument, or empty when absent.
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Number returns a numeric argument, or zero when absent.
func (a Args) Number(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

// Int returns an integer argument, or zero when absent.
func (a Args) Int(name string) int {
	return int(a.Number(name))
}

// Bool returns a boolean argument, or false when absent.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// StringSlice returns an array argument, or nil when absent.
func (a Args) StringSlice(name string) []string {
	v, _ := a[name].([]string)
	return v
}

// Validate checks raw arguments against the declared parameters, reporting every violated
// field in one pass so the model can self-correct in a single round-trip.
// Returns the normalized argument set on success.
func (s Spec) Validate(raw map[string]interface{}) (Args, error) {
	multi := errors.NewMultiError()
	args := make(Args, len(raw))

	for name, param := range s.Params {
		value, present := raw[name]
		if !present || value == nil {
			if param.Required {
				multi.Add(errors.NewValidationError(name, "required parameter missing", nil))
			}
			continue
		}

		normalized, err := coerce(name, param, value)
		if err != nil {
			multi.Add(err)
			continue
		}
		args[name] = normalized
	}

	for name := range raw {
		if _, known := s.Params[name]; !known {
			multi.Add(errors.NewValidationError(name, "unknown parameter", raw[name]))
		}
	}

	if multi.HasErrors() {
		return nil, errors.Wrapf(errors.ErrInvalidArguments, "tool %s: %v", s.Name, multi.ToError())
	}
	return args, nil
}

func coerce(name string, param ParamSpec, value interface{}) (interface{}, error) {
	switch param.Type {
	case TypeString:
		str, ok := value.(string)
		if !ok {
			return nil, errors.NewValidationError(name, "expected a string", value)
		}
		if strings.TrimSpace(str) == "" {
			return nil, errors.NewValidationError(name, "cannot be empty", value)
		}
		if len(param.Enum) > 0 && !contains(param.Enum, str) {
			return nil, errors.NewValidationError(name,
				fmt.Sprintf("must be one of %s", strings.Join(param.Enum, ", ")), value)
		}
		return str, nil

	case TypeNumber, TypeInteger:
		num, ok := toFloat(value)
		if !ok {
			return nil, errors.NewValidationError(name, "expected a number", value)
		}
		if param.Type == TypeInteger && num != math.Trunc(num) {
			return nil, errors.NewValidationError(name, "expected an integer", value)
		}
		if param.GreaterThan != nil && num <= *param.GreaterThan {
			return nil, errors.NewValidationError(name,
				fmt.Sprintf("must be greater than %v", *param.GreaterThan), value)
		}
		return num, nil

	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, errors.NewValidationError(name, "expected a boolean", value)
		}
		return b, nil

	case TypeArray:
		items, err := toStringSlice(value)
		if err != nil {
			return nil, errors.NewValidationError(name, "expected an array of strings", value)
		}
		if len(items) < param.MinItems {
			return nil, errors.NewValidationError(name,
				fmt.Sprintf("needs at least %d items", param.MinItems), value)
		}
		return items, nil

	default:
		return nil, errors.NewValidationError(name,
			fmt.Sprintf("unsupported parameter type %q", param.Type), value)
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}

func toStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d is not a string", i)
			}
			out[i] = str
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not an array")
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// JSONSchema renders the parameter schema for the model's tool definition.
func (s Spec) JSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.Params))
	var required []string

	for name, param := range s.Params {
		prop := map[string]interface{}{
			"type":        string(param.Type),
			"description": param.Description,
		}
		if len(param.Enum) > 0 {
			prop["enum"] = param.Enum
		}
		if param.GreaterThan != nil {
			prop["exclusiveMinimum"] = *param.GreaterThan
		}
		if param.Type == TypeArray {
			prop["items"] = map[string]interface{}{"type": "string"}
			if param.MinItems > 0 {
				prop["minItems"] = param.MinItems
			}
		}
		properties[name] = prop
	}

	for name, param := range s.Params {
		if param.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
