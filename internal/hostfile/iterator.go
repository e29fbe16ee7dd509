package hostfile

import (
	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

type position byte

const (
	begin, onmyway, end position = 0, 1, 2
)

// iterator walks the live records of a file in access order: key order for
// keyed files, arrival sequence otherwise.
//
// It holds the key it sits on, not a tree node, so it stays usable after
// that record is updated or deleted: stepping from a key that is gone lands
// on the live neighbours of the place the key had.
//
// IMPORTANT: iterator does not provide thread safety, callers hold file.mu
type iterator struct {
	file *File
	key  indexKey
	pos  position
}

// iterator returns an iterator positioned before the first record
func (f *File) iterator() iterator {
	return iterator{file: f, pos: begin}
}

// onRecord reports whether the iterator sits on a key rather than on one
// of the two file boundaries.
func (it *iterator) onRecord() bool {
	return it.pos == onmyway
}

// live reports whether the record under the iterator still exists.
func (it *iterator) live() bool {
	return it.pos == onmyway && it.file.get(it.key.number) != nil
}

// record returns a copy of the live record under the iterator.
func (it *iterator) record() *record.Record {
	return it.file.records[it.key.number-1].Clone(it.key.number)
}

// rewind moves before the first record, end after the last.
func (it *iterator) rewind() {
	it.pos = begin
}

func (it *iterator) end() {
	it.pos = end
}

// place puts the iterator on k.
func (it *iterator) place(k indexKey) {
	it.key = k
	it.pos = onmyway
}

// step moves one record in dir. Past the last record in dir it moves onto
// that boundary and reports false.
func (it *iterator) step(dir host.Direction) bool {
	if dir == host.Backward {
		return it.prev()
	}
	return it.next()
}

func (it *iterator) next() bool {
	if it.pos == end {
		return false
	}
	var k indexKey
	var ok bool
	switch {
	case it.file.index == nil:
		k, ok = it.scan(host.Forward)
	case it.pos == begin:
		k, ok = it.firstWhere(func(indexKey) bool { return true })
	default:
		from := it.key
		k, ok = it.firstWhere(func(x indexKey) bool { return it.file.index.cmp(x, from) > 0 })
	}
	if !ok {
		it.pos = end
		return false
	}
	it.place(k)
	return true
}

func (it *iterator) prev() bool {
	if it.pos == begin {
		return false
	}
	var k indexKey
	var ok bool
	switch {
	case it.file.index == nil:
		k, ok = it.scan(host.Backward)
	case it.pos == end:
		k, ok = it.lastWhere(func(indexKey) bool { return true })
	default:
		from := it.key
		k, ok = it.lastWhere(func(x indexKey) bool { return it.file.index.cmp(x, from) < 0 })
	}
	if !ok {
		it.pos = begin
		return false
	}
	it.place(k)
	return true
}

// seek moves to the landing record of a key positioning: the index keys
// are related to key on its leading fields. On a miss the iterator does
// not move.
func (it *iterator) seek(key []any, m host.Match) bool {
	f := it.file
	rel := func(x indexKey) int {
		return f.cmp.OrderKeys(f.spec.Format, x.values, key)
	}

	var k indexKey
	var ok bool
	switch m {
	case host.MatchEqual:
		k, ok = it.firstWhere(func(x indexKey) bool { return rel(x) >= 0 })
		ok = ok && rel(k) == 0
	case host.MatchGreaterOrEqual:
		k, ok = it.firstWhere(func(x indexKey) bool { return rel(x) >= 0 })
	case host.MatchGreater:
		k, ok = it.firstWhere(func(x indexKey) bool { return rel(x) > 0 })
	case host.MatchLess:
		k, ok = it.lastWhere(func(x indexKey) bool { return rel(x) < 0 })
	case host.MatchLessOrEqual:
		k, ok = it.lastWhere(func(x indexKey) bool { return rel(x) <= 0 })
	}
	if !ok {
		return false
	}
	it.place(k)
	return true
}

// scan walks the arrival sequence from the iterator to the next live
// record in dir.
func (it *iterator) scan(dir host.Direction) (indexKey, bool) {
	f := it.file
	last := int64(len(f.records))
	n, inc := int64(1), int64(1)
	if dir == host.Backward {
		n, inc = last, -1
	}
	if it.pos == onmyway {
		n = it.key.number + inc
	}
	for ; n >= 1 && n <= last; n += inc {
		if rec := f.records[n-1]; rec != nil {
			return f.keyOf(rec, n), true
		}
	}
	return indexKey{}, false
}

// firstWhere returns the leftmost index key for which pred holds. pred must
// be monotone over the index order (false ... false, true ... true).
func (it *iterator) firstWhere(pred func(indexKey) bool) (indexKey, bool) {
	var found *redBlackNode
	for curNode := it.file.index.root; curNode != nil; {
		if pred(curNode.key) {
			found = curNode
			curNode = curNode.left
		} else {
			curNode = curNode.right
		}
	}
	if found == nil {
		return indexKey{}, false
	}
	return found.key, true
}

// lastWhere returns the rightmost index key for which pred holds. pred must
// be monotone the other way (true ... true, false ... false).
func (it *iterator) lastWhere(pred func(indexKey) bool) (indexKey, bool) {
	var found *redBlackNode
	for curNode := it.file.index.root; curNode != nil; {
		if pred(curNode.key) {
			found = curNode
			curNode = curNode.right
		} else {
			curNode = curNode.left
		}
	}
	if found == nil {
		return indexKey{}, false
	}
	return found.key, true
}
