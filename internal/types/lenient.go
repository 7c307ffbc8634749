package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"repodigest/internal/util/jsonutil"
)

// Model output drifts in shape from call to call. The types below accept any
// JSON value where the prompt asked for a string, list, flag or score, so one
// odd field never costs the whole summary.

// Text is a string that also accepts numbers, booleans, arrays and objects.
// Arrays are joined with ", "; objects keep their compact JSON form.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	v, err := decodeAny(b)
	if err != nil {
		return err
	}
	*t = Text(textOf(v))
	return nil
}

// StringList is a []string that also accepts a single scalar, null, or
// elements of any type. Objects such as {"type":"import","text":"..."} keep
// their compact JSON form.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	v, err := decodeAny(b)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*l = nil
	case []any:
		out := make(StringList, 0, len(x))
		for _, e := range x {
			if e == nil {
				continue
			}
			out = append(out, textOf(e))
		}
		*l = out
	case string:
		if strings.TrimSpace(x) == "" {
			*l = nil
			return nil
		}
		*l = StringList{x}
	default:
		*l = StringList{textOf(x)}
	}
	return nil
}

// Flag is a bool that also accepts "true"/"yes"/"1" style strings and numbers.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	v, err := decodeAny(b)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*f = Flag(x)
	case json.Number:
		n, _ := x.Float64()
		*f = n != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1", "mixed":
			*f = true
		default:
			*f = false
		}
	default:
		*f = false
	}
	return nil
}

// Confidence is a score in [0,1]. It accepts a JSON number, a numeric string,
// a percentage such as "80%" or the words high, medium and low. Anything else
// decodes as 0.
type Confidence float64

var confidenceWords = map[string]float64{
	"very high": 0.9,
	"high":      0.8,
	"medium":    0.5,
	"moderate":  0.5,
	"low":       0.2,
	"very low":  0.1,
}

func (c *Confidence) UnmarshalJSON(b []byte) error {
	v, err := decodeAny(b)
	if err != nil {
		return err
	}
	*c = 0
	switch x := v.(type) {
	case json.Number:
		if f, err := x.Float64(); err == nil {
			*c = Confidence(f)
		}
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if w, ok := confidenceWords[s]; ok {
			*c = Confidence(w)
			return nil
		}
		pct := strings.HasSuffix(s, "%")
		if f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64); err == nil {
			if pct {
				f /= 100
			}
			*c = Confidence(f)
		}
	}
	return nil
}

func decodeAny(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func textOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if s := textOf(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := jsonutil.MarshalNoEscape(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Extra holds members of a model-written object that have no typed field, so
// checkpoints keep everything the model returned.
type Extra map[string]json.RawMessage

var fieldKeyCache sync.Map // reflect.Type -> map[string]struct{}

func fieldKeys(t reflect.Type) map[string]struct{} {
	if v, ok := fieldKeyCache.Load(t); ok {
		return v.(map[string]struct{})
	}
	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = struct{}{}
	}
	fieldKeyCache.Store(t, keys)
	return keys
}

// extraOf returns the members of the object data that are not fields of t.
func extraOf(data []byte, t reflect.Type) Extra {
	var all map[string]json.RawMessage
	if json.Unmarshal(data, &all) != nil {
		return nil
	}
	known := fieldKeys(t)
	var out Extra
	for k, v := range all {
		if _, ok := known[k]; ok {
			continue
		}
		if out == nil {
			out = make(Extra)
		}
		out[k] = v
	}
	return out
}

// marshalWithExtra encodes v and appends the extra members in key order.
func marshalWithExtra(v any, extra Extra) ([]byte, error) {
	b, err := jsonutil.MarshalNoEscape(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	empty := len(b) == 2
	for i, k := range keys {
		if i > 0 || !empty {
			buf.WriteByte(',')
		}
		kb, err := jsonutil.MarshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// isTypeDrift reports whether err is a field type mismatch that encoding/json
// recovered from. The decoded value is still usable in that case.
func isTypeDrift(err error) bool {
	var te *json.UnmarshalTypeError
	return errors.As(err, &te)
}
