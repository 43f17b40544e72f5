package hashmap

import "reflect"

// InitHash is the FNV-1a offset basis used for all pointer-identity
// hashing in this package.
const InitHash uint64 = 0xcbf29ce484222325

const fnvPrime uint64 = 1099511628211

// FoldPointer mixes the identity of key (its pointer value, obtained
// via reflection) into an existing running hash, most-significant byte
// first. It is the building block for both PointerHash and composite
// hashes over several pointer-valued fields (type-tuples, method keys).
func FoldPointer(hash uint64, key interface{}) uint64 {
	p := pointerValue(key)
	for i := 7; i >= 0; i-- {
		b := byte(p >> uint(8*i))
		hash = (hash * fnvPrime) ^ uint64(b)
	}
	return hash
}

func pointerValue(key interface{}) uintptr {
	if key == nil {
		return 0
	}
	v := reflect.ValueOf(key)
	switch v.Kind() {
	case reflect.Ptr, reflect.UnsafePointer, reflect.Chan, reflect.Map, reflect.Func:
		return v.Pointer()
	default:
		// Not a reference type: fall back to hashing its string form
		// so callers that accidentally pass a value type still get a
		// deterministic, if not identity-based, hash.
		return uintptr(StringHash(v.String()))
	}
}

// PointerHash hashes key by identity (its pointer value). Used by the
// value/type namespaces, whose keys are *Symbol, and anywhere else two
// keys are only ever compared by identity.
func PointerHash(key interface{}) uint64 {
	return FoldPointer(InitHash, key)
}

// PointerEqual compares two keys by identity.
func PointerEqual(a, b interface{}) bool {
	return a == b
}

// StringHash computes Jenkins' one-at-a-time hash of s, matching
// string_hash() in the reference hashmap.c. Used for SymMap and
// ModuleMap, whose keys are symbol/module name strings.
func StringHash(s string) uint64 {
	var hash uint64
	for i := 0; i < len(s); i++ {
		hash += uint64(s[i])
		hash += hash << 10
		hash ^= hash >> 6
	}
	hash += hash << 3
	hash += hash << 11
	hash ^= hash >> 15
	return hash
}

// StringEqual compares two string keys for equality.
func StringEqual(a, b interface{}) bool {
	return a.(string) == b.(string)
}
