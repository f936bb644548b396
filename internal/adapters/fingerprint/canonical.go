package fingerprint

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/zerr"
)

// Canonicalize converts a call into its registry form.
//
// Container-valued arguments (maps, slices, arrays) are encoded as JSON, whose
// object keys are always sorted. Every other argument uses its default textual
// form, unless structural is set, in which case every argument is JSON-encoded.
func Canonicalize(call domain.Call, structural bool) (domain.RegistryEntry, error) {
	entry := domain.RegistryEntry{
		Method: call.Method,
		Args:   make([]string, 0, len(call.Args)),
		Kwargs: make(map[string]string, len(call.Kwargs)),
	}

	for i, arg := range call.Args {
		s, err := formatArg(arg, structural)
		if err != nil {
			return domain.RegistryEntry{}, zerr.With(err, "arg_index", i)
		}
		entry.Args = append(entry.Args, s)
	}

	for k, v := range call.Kwargs {
		s, err := formatArg(v, structural)
		if err != nil {
			return domain.RegistryEntry{}, zerr.With(err, "kwarg", k)
		}
		entry.Kwargs[k] = s
	}

	return entry, nil
}

func formatArg(v any, structural bool) (string, error) {
	if structural || isContainer(v) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", zerr.With(zerr.Wrap(domain.ErrFingerprintFailed, err.Error()), "type", fmt.Sprintf("%T", v))
		}
		return string(data), nil
	}

	switch val := v.(type) {
	case nil:
		return "None", nil
	case string:
		return quote(val), nil
	case bool:
		if val {
			return "True", nil
		}
		return "False", nil
	default:
		return fmt.Sprint(v), nil
	}
}

func isContainer(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
