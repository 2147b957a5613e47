package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	Key interface {
		~int | ~int64
	}

	// Bits is a set of small keys starting from base.
	Bits[K Key] struct {
		base K
		b    []uint64
		b0   [1]uint64
	}
)

func MakeBits[K Key](base K, keys ...K) Bits[K] {
	s := Bits[K]{
		base: base,
	}

	s.b = s.b0[:0]

	s.SetAll(keys...)

	return s
}

func (s Bits[K]) Copy() Bits[K] {
	c := MakeBits(s.base)

	c.b = append(c.b, s.b...)

	return c
}

func (s *Bits[K]) Set(k K) {
	i, j := s.ij(k)

	s.grow(i)

	s.b[i] |= 1 << j
}

func (s *Bits[K]) SetAll(k ...K) {
	for _, k := range k {
		s.Set(k)
	}
}

func (s *Bits[K]) Clear(k K) {
	i, j := s.ij(k)

	if i < 0 || i >= len(s.b) {
		return
	}

	s.b[i] &^= 1 << j
}

func (s Bits[K]) IsSet(k K) bool {
	i, j := s.ij(k)

	if i < 0 || i >= len(s.b) {
		return false
	}

	return s.b[i]&(1<<j) != 0
}

// First returns the smallest key in the set.
func (s Bits[K]) First() (K, bool) {
	for i, x := range s.b {
		if x != 0 {
			return s.base + K(i*64+bits.TrailingZeros64(x)), true
		}
	}

	return 0, false
}

func (s *Bits[K]) Merge(x Bits[K]) {
	if s.base != x.base {
		panic("merge of sets with different base")
	}

	s.grow(len(x.b) - 1)

	for i, x := range x.b {
		s.b[i] |= x
	}
}

func (s Bits[K]) Size() (r int) {
	for _, c := range s.b {
		r += bits.OnesCount64(c)
	}

	return r
}

func (s Bits[K]) Range(f func(k K) bool) {
	for i, x := range s.b {
		for x != 0 {
			j := bits.TrailingZeros64(x)
			x &^= 1 << j

			if !f(s.base + K(i*64+j)) {
				return
			}
		}
	}
}

// Slice returns the keys in increasing order.
func (s Bits[K]) Slice() (r []K) {
	s.Range(func(k K) bool {
		r = append(r, k)
		return true
	})

	return r
}

func (s Bits[K]) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.b == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(k K) bool {
		b = e.AppendInt(b, int(k))

		return true
	})

	b = e.AppendBreak(b)

	return b
}

func (s *Bits[K]) ij(k K) (i int, j int) {
	p := int(k - s.base)
	if p < 0 {
		return -1, 0
	}

	return p / 64, p % 64
}

func (s *Bits[K]) grow(i int) {
	if i < 0 {
		panic("key below set base")
	}

	for i >= len(s.b) {
		s.b = append(s.b, 0)
	}
}
