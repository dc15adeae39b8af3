package table

import (
	"encoding/json"
	"slices"
)

// Selection is an immutable set of selected row keys. Every operation returns
// a new Selection; the receiver is never modified. The zero value is an empty
// selection.
type Selection struct {
	keys map[string]struct{}
}

// NewSelection returns a selection containing keys.
func NewSelection(keys ...string) Selection {
	s := Selection{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

func (s Selection) clone(extra int) Selection {
	out := Selection{keys: make(map[string]struct{}, len(s.keys)+extra)}
	for k := range s.keys {
		out.keys[k] = struct{}{}
	}
	return out
}

// IsSelected reports whether key is selected.
func (s Selection) IsSelected(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of selected keys.
func (s Selection) Len() int {
	return len(s.keys)
}

// Keys returns the selected keys in sorted order.
func (s Selection) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Toggle adds key if absent and removes it otherwise.
func (s Selection) Toggle(key string) Selection {
	out := s.clone(1)
	if _, ok := out.keys[key]; ok {
		delete(out.keys, key)
	} else {
		out.keys[key] = struct{}{}
	}
	return out
}

// SelectAllVisible adds exactly visibleKeys to the selection.
func (s Selection) SelectAllVisible(visibleKeys []string) Selection {
	out := s.clone(len(visibleKeys))
	for _, k := range visibleKeys {
		out.keys[k] = struct{}{}
	}
	return out
}

// DeselectAllVisible removes exactly visibleKeys, leaving selections made on
// other pages untouched.
func (s Selection) DeselectAllVisible(visibleKeys []string) Selection {
	out := s.clone(0)
	for _, k := range visibleKeys {
		delete(out.keys, k)
	}
	return out
}

// AllSelected reports whether every visible key is selected. It is false for
// an empty page.
func (s Selection) AllSelected(visibleKeys []string) bool {
	if len(visibleKeys) == 0 {
		return false
	}
	for _, k := range visibleKeys {
		if !s.IsSelected(k) {
			return false
		}
	}
	return true
}

// Retain drops keys that are no longer present in the dataset.
func (s Selection) Retain(datasetKeys []string) Selection {
	present := make(map[string]struct{}, len(datasetKeys))
	for _, k := range datasetKeys {
		present[k] = struct{}{}
	}
	out := Selection{keys: make(map[string]struct{}, len(s.keys))}
	for k := range s.keys {
		if _, ok := present[k]; ok {
			out.keys[k] = struct{}{}
		}
	}
	return out
}

// Clear returns an empty selection.
func (s Selection) Clear() Selection {
	return Selection{keys: map[string]struct{}{}}
}

// MarshalJSON encodes the selection as a sorted array of keys.
func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

// UnmarshalJSON decodes an array of keys.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewSelection(keys...)
	return nil
}
