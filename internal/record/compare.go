package record

import (
	"bytes"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// KeyRelation is the result of comparing an anchor key with a record key,
// seen from the anchor.
type KeyRelation int

const (
	KeyLessThan KeyRelation = iota - 1
	KeyEqual
	KeyMoreThan
	KeyUnknown
)

func (r KeyRelation) String() string {
	switch r {
	case KeyLessThan:
		return "less"
	case KeyEqual:
		return "equal"
	case KeyMoreThan:
		return "more"
	}
	return "unknown"
}

// Comparer compares keys field by field. It owns a collator and is not
// safe for concurrent use.
type Comparer struct {
	collator *collate.Collator
}

func NewComparer(tag language.Tag) *Comparer {
	return &Comparer{collator: collate.New(tag)}
}

// CompareKeys compares the len(anchor) leading key fields of rec with the
// anchor. Field types without a defined ordering only report equality;
// any difference in them yields KeyUnknown.
func (c *Comparer) CompareKeys(anchor []any, rec *Record) KeyRelation {
	format := rec.Format()
	n := len(anchor)
	if n > format.NumKeyFields() {
		n = format.NumKeyFields()
	}
	key := rec.Key()
	for i := 0; i < n; i++ {
		rel := c.compareField(format.KeyField(i), anchor[i], key[i])
		if rel != KeyEqual {
			return rel
		}
	}
	return KeyEqual
}

func (c *Comparer) compareField(fd FieldDesc, a, b any) KeyRelation {
	switch fd.Type {
	case TypeBytes:
		x, okx := a.([]byte)
		y, oky := b.([]byte)
		if okx && oky {
			return relation(compareBytes(x, y))
		}
	case TypeVarText:
		x, okx := a.(string)
		y, oky := b.(string)
		if okx && oky {
			return relation(c.compareText(x, y))
		}
	case TypeDecimal:
		x, okx := a.(Decimal)
		y, oky := b.(Decimal)
		if okx && oky {
			return relation(x.Cmp(y))
		}
	}
	if valueEqual(a, b) {
		return KeyEqual
	}
	return KeyUnknown
}

// OrderKeys is a total order over the leading len(a) key fields, used by
// the host side to keep keyed files sorted. It agrees with CompareKeys
// wherever CompareKeys is definite.
func (c *Comparer) OrderKeys(format *Format, a, b []any) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if d := c.orderField(format.KeyField(i), a[i], b[i]); d != 0 {
			return d
		}
	}
	return 0
}

func (c *Comparer) orderField(fd FieldDesc, a, b any) int {
	switch fd.Type {
	case TypeInteger:
		x, y := a.(int64), b.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case TypeDecimal:
		return a.(Decimal).Cmp(b.(Decimal))
	case TypeFixedText:
		return strings.Compare(a.(string), b.(string))
	case TypeVarText:
		return c.compareText(a.(string), b.(string))
	case TypeBytes:
		return compareBytes(a.([]byte), b.([]byte))
	}
	return 0
}

func (c *Comparer) compareText(a, b string) int {
	switch {
	case len(a) < len(b):
		a += strings.Repeat(" ", len(b)-len(a))
	case len(b) < len(a):
		b += strings.Repeat(" ", len(a)-len(b))
	}
	return c.collator.CompareString(a, b)
}

// compareBytes orders by length first, then bytewise.
func compareBytes(a, b []byte) int {
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return bytes.Compare(a, b)
}

func relation(d int) KeyRelation {
	switch {
	case d < 0:
		return KeyLessThan
	case d > 0:
		return KeyMoreThan
	}
	return KeyEqual
}
