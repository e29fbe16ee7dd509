package hostfile

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

// FileSpec describes a file to create.
type FileSpec struct {
	Name       string
	Format     *record.Format
	Keyed      bool
	UniqueKeys bool
}

// File is a host physical file: records in arrival sequence plus, for
// keyed files, a key index that defines the access order.
type File struct {
	// mu also guards cmp: the collator is not safe for concurrent use
	mu sync.Mutex

	spec    FileSpec
	records []*record.Record // index is record number - 1, nil once deleted
	live    int
	index   *redBlackTree
	cmp     *record.Comparer

	sugar *zap.SugaredLogger
}

func newFile(spec FileSpec, tag language.Tag, logger *zap.Logger) (*File, error) {
	if spec.Format == nil {
		return nil, host.NewError("file "+spec.Name+" has no format", host.CodeBadRecord)
	}
	if spec.Keyed && spec.Format.NumKeyFields() == 0 {
		return nil, host.NewError("keyed file "+spec.Name+" has no key fields", host.CodeNotKeyed)
	}
	f := &File{
		spec:  spec,
		cmp:   record.NewComparer(tag),
		sugar: logger.Sugar().With("file", spec.Name),
	}
	if spec.Keyed {
		f.index = newRedBlackTree(f.order)
	}
	return f, nil
}

func (f *File) Name() string {
	return f.spec.Name
}

func (f *File) Format() *record.Format {
	return f.spec.Format
}

func (f *File) Keyed() bool {
	return f.spec.Keyed
}

// Len returns the number of live records.
func (f *File) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

// Append writes records and returns the numbers assigned to them.
func (f *File) Append(recs ...*record.Record) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	nums := make([]int64, 0, len(recs))
	for _, rec := range recs {
		n, err := f.insert(rec)
		if err != nil {
			return nums, err
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// Scan calls fn for every live record in access order until fn returns false.
func (f *File) Scan(fn func(*record.Record) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	it := f.iterator()
	for it.next() {
		if !fn(it.record()) {
			return
		}
	}
}

func (f *File) order(a, b indexKey) int {
	if d := f.cmp.OrderKeys(f.spec.Format, a.values, b.values); d != 0 {
		return d
	}
	switch {
	case a.number < b.number:
		return -1
	case a.number > b.number:
		return 1
	}
	return 0
}

func (f *File) keyOf(rec *record.Record, number int64) indexKey {
	return indexKey{values: rec.Key(), number: number}
}

func (f *File) check(rec *record.Record) error {
	if !rec.Format().Equal(f.spec.Format) {
		return host.NewError(fmt.Sprintf("record format %s does not match file %s", rec.Format().Name(), f.spec.Name), host.CodeBadRecord)
	}
	return nil
}

// duplicate reports whether another live record has the key of rec.
// Caller holds mu.
func (f *File) duplicate(rec *record.Record, self int64) bool {
	if f.index == nil || !f.spec.UniqueKeys {
		return false
	}
	key := rec.Key()
	it := f.iterator()
	if !it.seek(key, host.MatchEqual) {
		return false
	}
	for it.key.number == self {
		if !it.next() || f.cmp.OrderKeys(f.spec.Format, it.key.values, key) != 0 {
			return false
		}
	}
	return true
}

// insert stores a copy of rec. Caller holds mu.
func (f *File) insert(rec *record.Record) (int64, error) {
	if err := f.check(rec); err != nil {
		return 0, err
	}
	if f.duplicate(rec, 0) {
		return 0, host.NewError("duplicate key in "+f.spec.Name, host.CodeDuplicateKey)
	}
	n := int64(len(f.records) + 1)
	stored := rec.Clone(n)
	f.records = append(f.records, stored)
	f.live++
	if f.index != nil {
		f.index.put(f.keyOf(stored, n))
	}
	f.sugar.Debugw("insert", "number", n)
	return n, nil
}

// replace overwrites record n. Caller holds mu.
func (f *File) replace(n int64, rec *record.Record) (indexKey, error) {
	old := f.get(n)
	if old == nil {
		return indexKey{}, host.NewError(fmt.Sprintf("record %d not found", n), host.CodeRecordNotFound)
	}
	if err := f.check(rec); err != nil {
		return indexKey{}, err
	}
	if f.duplicate(rec, n) {
		return indexKey{}, host.NewError("duplicate key in "+f.spec.Name, host.CodeDuplicateKey)
	}
	stored := rec.Clone(n)
	if f.index != nil {
		f.index.remove(f.keyOf(old, n))
		f.index.put(f.keyOf(stored, n))
	}
	f.records[n-1] = stored
	f.sugar.Debugw("update", "number", n)
	return f.keyOf(stored, n), nil
}

// delete removes record n. Caller holds mu.
func (f *File) delete(n int64) error {
	old := f.get(n)
	if old == nil {
		return host.NewError(fmt.Sprintf("record %d not found", n), host.CodeRecordNotFound)
	}
	if f.index != nil {
		f.index.remove(f.keyOf(old, n))
	}
	f.records[n-1] = nil
	f.live--
	f.sugar.Debugw("delete", "number", n)
	return nil
}

// get returns the stored record n or nil. Caller holds mu.
func (f *File) get(n int64) *record.Record {
	if n < 1 || n > int64(len(f.records)) {
		return nil
	}
	return f.records[n-1]
}
