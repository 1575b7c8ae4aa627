package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/ledger/errors"
)

// collect returns all btree items within [start, end). A nil bound is open.
func collect(bt *btree.BTree, start, end []byte, reverse bool) []btree.Item {
	var items []btree.Item
	add := func(i btree.Item) bool {
		items = append(items, i)
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(add)
	case start == nil:
		bt.AscendLessThan(bkey{end}, add)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, add)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, add)
	}
	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items
}

// mergeIterator joins cached items with those of the parent, taking into
// consideration overwrites and deletes.
type mergeIterator struct {
	items   []btree.Item
	idx     int
	parent  Iterator
	reverse bool

	// parent lookahead
	peeked bool
	pdone  bool
	pkey   []byte
	pval   []byte
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(items []btree.Item, parent Iterator, reverse bool) *mergeIterator {
	return &mergeIterator{items: items, parent: parent, reverse: reverse}
}

func (m *mergeIterator) peek() error {
	if m.peeked || m.pdone {
		return nil
	}
	k, v, err := m.parent.Next()
	switch {
	case errors.ErrIteratorDone.Is(err):
		m.pdone = true
	case err != nil:
		return err
	default:
		m.pkey, m.pval, m.peeked = k, v, true
	}
	return nil
}

// Next returns the next item from either the cache or the parent. A cached
// item shadows the parent item with the same key.
func (m *mergeIterator) Next() ([]byte, []byte, error) {
	for {
		if err := m.peek(); err != nil {
			return nil, nil, err
		}
		haveOwn := m.idx < len(m.items)
		if !haveOwn && !m.peeked {
			return nil, nil, errors.ErrIteratorDone
		}

		useOwn := haveOwn
		if haveOwn && m.peeked {
			cmp := bytes.Compare(m.items[m.idx].(keyer).Key(), m.pkey)
			if m.reverse {
				cmp = -cmp
			}
			switch {
			case cmp > 0:
				useOwn = false
			case cmp == 0:
				// Shadowed.
				m.peeked = false
			}
		}

		if !useOwn {
			m.peeked = false
			return m.pkey, m.pval, nil
		}

		item := m.items[m.idx]
		m.idx++
		if s, ok := item.(setItem); ok {
			return s.key, s.value, nil
		}
		// deleted, skip it
	}
}

// Release releases the parent iterator.
func (m *mergeIterator) Release() {
	m.parent.Release()
	m.items = nil
}

// SliceIterator wraps an Iterator over a slice of models
type SliceIterator struct {
	data []Model
	idx  int
}

var _ Iterator = (*SliceIterator)(nil)

// NewSliceIterator creates a new Iterator over this slice
func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{data: data}
}

// Next returns the next model or ErrIteratorDone.
func (s *SliceIterator) Next() ([]byte, []byte, error) {
	if s.idx >= len(s.data) {
		return nil, nil, errors.ErrIteratorDone
	}
	m := s.data[s.idx]
	s.idx++
	return m.Key, m.Value, nil
}

// Release releases the Iterator.
func (s *SliceIterator) Release() {
	s.data = nil
}
