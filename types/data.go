package types

import (
	"encoding/json"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cast"
)

// State is the single mutable record flowing through a run. Keys are strings,
// values are arbitrary; no schema is enforced. It is passed by reference into
// every step, which may mutate it in place or return a replacement.
type State map[string]any

func (s State) Get(key string) (any, bool) {
	v, exists := s[key]
	return v, exists
}

func (s State) GetString(key string) (string, bool) {
	v, exists := s.Get(key)
	return cast.ToString(v), exists
}

func (s State) GetInt(key string) (int, bool) {
	v, exists := s.Get(key)
	return cast.ToInt(v), exists
}

func (s State) GetBool(key string) (bool, bool) {
	v, exists := s.Get(key)
	return cast.ToBool(v), exists
}

func (s State) GetFloat64(key string) (float64, bool) {
	v, exists := s.Get(key)
	return cast.ToFloat64(v), exists
}

// GetStruct decodes the value under key into out through a JSON round trip.
func (s State) GetStruct(key string, out any) error {
	v, exists := s.Get(key)
	if !exists {
		return errors.NotFoundf("key: %s", key)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(json.Unmarshal(b, out))
}

func (s State) Set(key string, value any) {
	s[key] = value
}

// Lookup resolves a dotted path such as "metrics.quality_score" against the
// state, descending through nested mappings. The second return is false when
// any segment is missing or a non-mapping is hit along the way.
func (s State) Lookup(path string) (any, bool) {
	var value any = map[string]any(s)
	for _, part := range strings.Split(path, ".") {
		var m map[string]any
		switch v := value.(type) {
		case map[string]any:
			m = v
		case State:
			m = v
		default:
			return nil, false
		}
		var exists bool
		if value, exists = m[part]; !exists {
			return nil, false
		}
	}
	return value, true
}

// Clone returns a shallow copy: top-level keys are copied, values are shared.
// This matches the shallow-diff contract of the trace.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	clone := make(State, len(s))
	for k, v := range s {
		clone[k] = v
	}
	return clone
}
