package primitives

import "sort"

// Params is a string-keyed heterogeneous parameter map attached to entries and steps.
// Params values are treated as immutable; every operation returns a fresh map.
type Params map[string]any

// Clone returns a shallow copy. A nil receiver yields nil.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns p overlaid with every map in overrides, later maps winning.
// The result is nil only if all inputs are empty.
func (p Params) Merge(overrides ...Params) Params {
	size := len(p)
	for _, o := range overrides {
		size += len(o)
	}
	if size == 0 {
		return nil
	}
	out := make(Params, size)
	for k, v := range p {
		out[k] = v
	}
	for _, o := range overrides {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// Get returns the value for key.
func (p Params) Get(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// String returns the value for key if it is a string.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// Keys returns the keys in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
