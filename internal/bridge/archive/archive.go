// Package archive emulates the keyed-archive container format some vendor
// apps expect on the clipboard: a flat $objects array where entries
// reference each other by integer position ("UID"). Scope is deliberately
// narrow: three fixed share templates plus a generic dictionary
// encode/decode, not a general object-graph framework
package archive

import (
	perr "appbridge/internal/platform/errors"

	"howett.net/plist"
)

// Keyed-archive container field names (external contract)
const (
	keyArchiver  = "$archiver"
	keyObjects   = "$objects"
	keyTop       = "$top"
	keyVersion   = "$version"
	keyUID       = "CF$UID"
	keyClass     = "$class"
	keyClasses   = "$classes"
	keyClassname = "$classname"

	archiverName    = "NSKeyedArchiver"
	archiveVersion  = 100000
	nullPlaceholder = "$null"
)

// UID builds an integer reference to another entry's position in $objects
func UID(n int) map[string]any { return map[string]any{keyUID: n} }

// MarshalXML encodes v as an XML property list
func MarshalXML(v any) ([]byte, error) {
	data, err := plist.Marshal(v, plist.XMLFormat)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeSerialize, "xml plist encode")
	}
	return data, nil
}

// MarshalBinary encodes v as a binary property list
func MarshalBinary(v any) ([]byte, error) {
	data, err := plist.Marshal(v, plist.BinaryFormat)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeSerialize, "binary plist encode")
	}
	return data, nil
}

// UnmarshalDict decodes a property list (any format) into a string-keyed map
func UnmarshalDict(data []byte) (map[string]any, error) {
	var v any
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeSerialize, "plist decode")
	}
	dict, ok := v.(map[string]any)
	if !ok {
		return nil, perr.Serializef("plist root is not a dictionary")
	}
	return dict, nil
}

// ArchiveDict encodes a string-keyed dictionary (values: strings, byte
// blobs, numbers, nested dictionaries) into the keyed-archive container and
// returns its binary plist form. Used for the clipboard hand-off payloads
// that expect archived dictionaries rather than plain plists
func ArchiveDict(root map[string]any) ([]byte, error) {
	enc := &encoder{objects: []any{nullPlaceholder}}
	rootUID, err := enc.encode(root)
	if err != nil {
		return nil, err
	}
	container := map[string]any{
		keyArchiver: archiverName,
		keyObjects:  enc.objects,
		keyTop:      map[string]any{"root": plist.UID(rootUID)},
		keyVersion:  archiveVersion,
	}
	return MarshalBinary(container)
}

type encoder struct {
	objects []any
}

// add appends obj and returns its index
func (e *encoder) add(obj any) int {
	e.objects = append(e.objects, obj)
	return len(e.objects) - 1
}

func (e *encoder) encode(v any) (int, error) {
	switch val := v.(type) {
	case string, []byte, int, int64, uint64, float64, bool:
		return e.add(val), nil
	case map[string]any:
		// reserve the slot first so the dict precedes its members
		idx := e.add(nil)
		keys := make([]any, 0, len(val))
		objs := make([]any, 0, len(val))
		for k, member := range val {
			keys = append(keys, plist.UID(e.add(k)))
			mi, err := e.encode(member)
			if err != nil {
				return 0, err
			}
			objs = append(objs, plist.UID(mi))
		}
		classIdx := e.add(map[string]any{
			keyClasses:   []any{"NSMutableDictionary", "NSDictionary", "NSObject"},
			keyClassname: "NSMutableDictionary",
		})
		e.objects[idx] = map[string]any{
			keyClass:     plist.UID(classIdx),
			"NS.keys":    keys,
			"NS.objects": objs,
		}
		return idx, nil
	default:
		return 0, perr.Serializef("unsupported archive value type %T", v)
	}
}

// UnarchiveDict decodes a keyed-archive payload back into a plain
// string-keyed map, resolving UID references. Malformed input (dangling
// UIDs, non-dictionary root) is an error, never a partial result
func UnarchiveDict(data []byte) (map[string]any, error) {
	container, err := UnmarshalDict(data)
	if err != nil {
		return nil, err
	}
	objects, ok := container[keyObjects].([]any)
	if !ok {
		return nil, perr.Serializef("keyed archive has no $objects array")
	}
	top, ok := container[keyTop].(map[string]any)
	if !ok {
		return nil, perr.Serializef("keyed archive has no $top")
	}
	rootRef, ok := uidOf(top["root"])
	if !ok {
		return nil, perr.Serializef("keyed archive $top.root is not a UID")
	}
	resolved, err := resolve(objects, rootRef, 0)
	if err != nil {
		return nil, err
	}
	dict, ok := resolved.(map[string]any)
	if !ok {
		return nil, perr.Serializef("keyed archive root is not a dictionary")
	}
	return dict, nil
}

const maxResolveDepth = 32

func resolve(objects []any, idx uint64, depth int) (any, error) {
	if depth > maxResolveDepth {
		return nil, perr.Serializef("keyed archive nests too deep")
	}
	if idx >= uint64(len(objects)) {
		return nil, perr.Serializef("UID %d outside $objects", idx)
	}
	obj := objects[idx]
	switch val := obj.(type) {
	case string:
		if val == nullPlaceholder {
			return nil, nil
		}
		return val, nil
	case map[string]any:
		if keys, ok := val["NS.keys"].([]any); ok {
			objs, _ := val["NS.objects"].([]any)
			if len(objs) != len(keys) {
				return nil, perr.Serializef("keyed archive dictionary arity mismatch")
			}
			out := make(map[string]any, len(keys))
			for i := range keys {
				ki, ok := uidOf(keys[i])
				if !ok {
					return nil, perr.Serializef("keyed archive key is not a UID")
				}
				kv, err := resolve(objects, ki, depth+1)
				if err != nil {
					return nil, err
				}
				ks, ok := kv.(string)
				if !ok {
					return nil, perr.Serializef("keyed archive key is not a string")
				}
				vi, ok := uidOf(objs[i])
				if !ok {
					return nil, perr.Serializef("keyed archive value is not a UID")
				}
				vv, err := resolve(objects, vi, depth+1)
				if err != nil {
					return nil, err
				}
				out[ks] = vv
			}
			return out, nil
		}
		// class-shaped entry: resolve members, drop the $class tag
		out := make(map[string]any, len(val))
		for k, member := range val {
			if k == keyClass || k == keyClasses || k == keyClassname {
				continue
			}
			if ref, ok := uidOf(member); ok {
				mv, err := resolve(objects, ref, depth+1)
				if err != nil {
					return nil, err
				}
				out[k] = mv
				continue
			}
			out[k] = member
		}
		return out, nil
	default:
		return obj, nil
	}
}

// uidOf accepts both the decoded plist.UID form and the literal
// {"CF$UID": n} dictionary form
func uidOf(v any) (uint64, bool) {
	switch val := v.(type) {
	case plist.UID:
		return uint64(val), true
	case map[string]any:
		if len(val) == 1 {
			if n, ok := val[keyUID]; ok {
				return intOf(n)
			}
		}
	}
	return 0, false
}

func intOf(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	}
	return 0, false
}
