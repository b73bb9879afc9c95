package templater

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// TemplateData is the caller-supplied nested value tree. The engine only
// reads it; ownership stays with the caller.
type TemplateData map[string]interface{}

// resolveFailure distinguishes why a path did not resolve.
type resolveFailure int

const (
	resolveOK resolveFailure = iota
	// resolveMissing: a segment does not exist or is nil.
	resolveMissing
	// resolveNotTraversable: a scalar was hit before the path was
	// exhausted.
	resolveNotTraversable
)

// Resolve descends the value tree along the dot-separated segments of
// path. It reports false when any segment is absent, nil, or the
// traversal hits a non-traversable node before the path is exhausted.
func Resolve(data TemplateData, path string) (interface{}, bool) {
	value, failure := resolvePath(data, path)
	return value, failure == resolveOK
}

func resolvePath(data TemplateData, path string) (interface{}, resolveFailure) {
	if path == "" {
		return nil, resolveMissing
	}

	var current interface{} = map[string]interface{}(data)
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		node, ok := current.(map[string]interface{})
		if !ok {
			if td, isData := current.(TemplateData); isData {
				node = map[string]interface{}(td)
			} else if i > 0 {
				return nil, resolveNotTraversable
			} else {
				return nil, resolveMissing
			}
		}
		next, exists := node[segment]
		if !exists || next == nil {
			return nil, resolveMissing
		}
		current = next
	}
	return current, resolveOK
}

// IsEmpty reports whether a resolved value counts as empty for deletion
// purposes: nil, empty or whitespace-only strings, and empty collections
// are empty; 0 and false are present values and are not.
func IsEmpty(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case TemplateData:
		return len(v) == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// formatScalar renders a resolved value for inline substitution.
// Floats with no fractional component print without a decimal point so
// chart values like 125000.0 splice as "125000".
func formatScalar(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
