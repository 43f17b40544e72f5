// Package hashmap implements the open-addressed, linear-probing hash
// table substrate used throughout nsecore to build typed maps (symbol
// tables, namespaces, module registries, method tables, type interning
// caches).
//
// The algorithm and bucket layout are ported from the reference C
// implementation's hashmap.c: power-of-two capacity, tombstone-based
// deletion, load factor 3/4 triggering a ×2 grow, load factor 1/4
// triggering a ÷2 shrink with a floor of 8.
package hashmap

// HashFunc computes a hash code for an opaque key.
type HashFunc func(key interface{}) uint64

// EqualFunc reports whether two opaque keys are equal.
type EqualFunc func(a, b interface{}) bool

const minCapacity = 8

type bucket struct {
	hash    uint64
	defined bool
	deleted bool
	key     interface{}
	value   interface{}
}

// Table is a generic open-addressed hash table over opaque keys and
// values. It is not safe for concurrent use (the runtime this
// substrate serves is single-threaded, per spec).
type Table struct {
	size     int
	capacity int
	mask     uint64
	upperCap int
	lowerCap int
	hash     HashFunc
	equal    EqualFunc
	buckets  []bucket
}

// New creates an empty table with the given hash and equality
// functions, starting at the minimum capacity.
func New(hash HashFunc, equal EqualFunc) *Table {
	return NewSized(hash, equal, minCapacity)
}

// NewSized is like New but starts at the given initial capacity
// (rounded up to the next power of two, floor 8). Used by
// config.Config.InitialCapacity to size freshly created modules'
// namespaces.
func NewSized(hash HashFunc, equal EqualFunc, initial int) *Table {
	cap := minCapacity
	for cap < initial {
		cap <<= 1
	}
	t := &Table{
		hash:  hash,
		equal: equal,
	}
	t.resetBuckets(cap)
	return t
}

func (t *Table) resetBuckets(capacity int) {
	t.capacity = capacity
	t.mask = uint64(capacity - 1)
	t.upperCap = capacity * 3 / 4
	t.lowerCap = capacity / 4
	t.buckets = make([]bucket, capacity)
}

// Len returns the number of live (non-tombstoned) entries.
func (t *Table) Len() int {
	return t.size
}

func (t *Table) resize(newCapacity int) {
	old := t.buckets
	t.resetBuckets(newCapacity)
	for i := range old {
		if old[i].defined && !old[i].deleted {
			h := old[i].hash & t.mask
			for t.buckets[h].defined {
				h = (h + 1) & t.mask
			}
			t.buckets[h] = bucket{hash: old[i].hash, defined: true, key: old[i].key, value: old[i].value}
		}
	}
}

// Add inserts key/value if key is not already present. It reports
// false without modifying the table if key already exists.
func (t *Table) Add(key, value interface{}) bool {
	if t.size+1 > t.upperCap {
		t.resize(t.capacity << 1)
	}
	code := t.hash(key)
	h := code & t.mask
	free := -1
	for i := 0; i < t.capacity && t.buckets[h].defined; i++ {
		b := &t.buckets[h]
		if b.deleted {
			if free < 0 {
				free = int(h)
			}
		} else if code == b.hash && t.equal(b.key, key) {
			return false
		}
		h = (h + 1) & t.mask
	}
	if free >= 0 {
		h = uint64(free)
	}
	t.buckets[h] = bucket{hash: code, defined: true, deleted: false, key: key, value: value}
	t.size++
	return true
}

// Lookup returns the value stored for key, if any.
func (t *Table) Lookup(key interface{}) (interface{}, bool) {
	code := t.hash(key)
	h := code & t.mask
	for t.buckets[h].defined {
		b := &t.buckets[h]
		if !b.deleted && code == b.hash && t.equal(b.key, key) {
			return b.value, true
		}
		h = (h + 1) & t.mask
	}
	return nil, false
}

// Remove deletes key from the table, returning its prior value if
// present. Deletion marks the bucket as a tombstone; the table may
// shrink afterward.
func (t *Table) Remove(key interface{}) (interface{}, bool) {
	code := t.hash(key)
	h := code & t.mask
	for t.buckets[h].defined {
		b := &t.buckets[h]
		if !b.deleted && code == b.hash && t.equal(b.key, key) {
			value := b.value
			b.deleted = true
			t.size--
			if t.size < t.lowerCap && t.capacity > minCapacity {
				t.resize(t.capacity >> 1)
			}
			return value, true
		}
		h = (h + 1) & t.mask
	}
	return nil, false
}

// Iterator enumerates the live entries of a Table in unspecified
// order. An Iterator is invalidated by any structural mutation
// (Add/Remove causing insert or tombstoning) of the same table
// performed between calls to Next.
type Iterator struct {
	table *Table
	next  int
}

// Iterate returns a fresh iterator over the table's current contents.
func (t *Table) Iterate() *Iterator {
	return &Iterator{table: t}
}

// Next returns the next live entry, or ok=false once exhausted.
func (it *Iterator) Next() (key, value interface{}, ok bool) {
	for it.next < len(it.table.buckets) {
		b := &it.table.buckets[it.next]
		it.next++
		if b.defined && !b.deleted {
			return b.key, b.value, true
		}
	}
	return nil, nil, false
}
