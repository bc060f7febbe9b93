package script

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
)

// ConvertToStarlark converts plain Go values to Starlark values. Values that
// already are Starlark values pass through; unknown types become strings.
func ConvertToStarlark(val any) starlark.Value {
	switch v := val.(type) {
	case nil:
		return starlark.None
	case starlark.Value:
		return v
	case string:
		return starlark.String(v)
	case bool:
		return starlark.Bool(v)
	case int:
		return starlark.MakeInt(v)
	case int64:
		return starlark.MakeInt64(v)
	case float64:
		return starlark.Float(v)
	case []string:
		items := make([]starlark.Value, len(v))
		for i, s := range v {
			items[i] = starlark.String(s)
		}
		return starlark.NewList(items)
	case []any:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			items[i] = ConvertToStarlark(item)
		}
		return starlark.NewList(items)
	case map[string]string:
		dict := starlark.NewDict(len(v))
		for _, k := range sortedKeys(v) {
			_ = dict.SetKey(starlark.String(k), starlark.String(v[k]))
		}
		return dict
	case map[string]any:
		dict := starlark.NewDict(len(v))
		for _, k := range sortedKeys(v) {
			_ = dict.SetKey(starlark.String(k), ConvertToStarlark(v[k]))
		}
		return dict
	default:
		return starlark.String(fmt.Sprint(v))
	}
}

// ConvertFromStarlark converts Starlark values to plain Go values. Document
// values and other non-data values are returned as their string form.
func ConvertFromStarlark(val starlark.Value) any {
	switch v := val.(type) {
	case nil, starlark.NoneType:
		return nil
	case starlark.String:
		return string(v)
	case starlark.Bool:
		return bool(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.String()
	case starlark.Float:
		return float64(v)
	case *starlark.List:
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, ConvertFromStarlark(v.Index(i)))
		}
		return out
	case starlark.Tuple:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, ConvertFromStarlark(item))
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key := item[0].String()
			if s, ok := item[0].(starlark.String); ok {
				key = string(s)
			}
			out[key] = ConvertFromStarlark(item[1])
		}
		return out
	default:
		return v.String()
	}
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
