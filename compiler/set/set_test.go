package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBits(t *testing.T) {
	s := MakeBits(5, 7, 9, 100)

	assert.True(t, s.IsSet(7))
	assert.False(t, s.IsSet(8))
	assert.False(t, s.IsSet(3))
	assert.True(t, s.IsSet(100))
	assert.Equal(t, 3, s.Size())

	k, ok := s.First()
	assert.True(t, ok)
	assert.Equal(t, 7, k)

	c := s.Copy()
	c.Clear(7)
	c.Clear(2)
	assert.True(t, s.IsSet(7))
	assert.Equal(t, []int{9, 100}, c.Slice())

	c.Clear(9)
	c.Clear(100)

	_, ok = c.First()
	assert.False(t, ok)

	m := MakeBits(5, 6)
	m.Merge(s)
	assert.Equal(t, []int{6, 7, 9, 100}, m.Slice())

	assert.Panics(t, func() { m.Set(1) })
}

func TestBitmap(t *testing.T) {
	var s Bitmap

	s.Set(3)
	s.Set(70)
	s.Set(200)

	assert.True(t, s.IsSet(70))
	assert.False(t, s.IsSet(71))
	assert.False(t, s.IsSet(-1))
	assert.Equal(t, 3, s.Size())
	assert.Equal(t, 3, s.First())
	assert.Equal(t, 200, s.Last())
	assert.Equal(t, 201, s.Len())

	for _, tc := range []struct {
		l, r int
		exp  bool
	}{
		{0, 3, false},
		{0, 4, true},
		{3, 70, false},
		{3, 71, true},
		{2, 4, true},
		{70, 200, false},
		{69, 71, true},
		{-5, 10, true},
		{200, 1000, false},
		{199, 1000, true},
		{5, 5, false},
	} {
		assert.Equal(t, tc.exp, s.AnyIn(tc.l, tc.r), "(%d, %d)", tc.l, tc.r)
	}

	var got []int
	s.Range(func(i int) bool {
		got = append(got, i)
		return true
	})

	assert.Equal(t, []int{3, 70, 200}, got)

	assert.Equal(t, 0, (*Bitmap)(nil).Size())
	assert.Equal(t, -1, NewBitmap(100).First())
}
