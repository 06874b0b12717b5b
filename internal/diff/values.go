package diff

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// lookup reads a dotted path from a nested map. The second result is false
// when any segment is missing.
func lookup(data map[string]any, path string) (any, bool) {
	var cur any = data
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// assign writes value at a dotted path, creating intermediate maps.
func assign(data map[string]any, path string, value any) {
	segs := strings.Split(path, ".")
	cur := data
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// normalize brings a value into its JSON-decoded shape so that values built
// in Go (ints, typed slices) compare equal to values decoded from the wire.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// toCodes maps a list of objects to the list of their "code" values.
// Plain strings pass through; anything that is not a list is returned as is.
func toCodes(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	codes := make([]any, 0, len(list))
	for _, el := range list {
		switch e := el.(type) {
		case map[string]any:
			codes = append(codes, e["code"])
		default:
			codes = append(codes, e)
		}
	}
	return codes
}

func prepare(p *Property, v any) any {
	v = normalize(v)
	if p.Transform == TransformCodes {
		v = toCodes(v)
	}
	return v
}

func equal(p *Property, a, b any) bool {
	if p.Equality == EqualityUnordered {
		la, aok := a.([]any)
		lb, bok := b.([]any)
		if aok && bok {
			return sameMultiset(la, lb)
		}
	}
	return reflect.DeepEqual(a, b)
}

func sameMultiset(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	ka, kb := canonicalKeys(a), canonicalKeys(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

// canonicalKeys encodes each element (json sorts map keys) and sorts them.
func canonicalKeys(list []any) []string {
	keys := make([]string, len(list))
	for i, el := range list {
		raw, _ := json.Marshal(el)
		keys[i] = string(raw)
	}
	sort.Strings(keys)
	return keys
}
