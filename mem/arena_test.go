// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeReturnsValue(t *testing.T) {
	a := NewArena()
	p := Make(a, 42)
	require.NotNil(t, p)
	assert.Equal(t, 42, *p)

	type pair struct{ X, Y int }
	pp := Make(a, pair{1, 2})
	assert.Equal(t, pair{1, 2}, *pp)
}

func TestNewZeroes(t *testing.T) {
	a := NewArena()
	for i := 0; i < 1000; i++ {
		p := New[[16]byte](a)
		assert.Equal(t, [16]byte{}, *p)
		*p = [16]byte{1: 0xff, 15: 0xff}
	}
	a.Reset()
	for i := 0; i < 1000; i++ {
		p := New[[16]byte](a)
		assert.Equal(t, [16]byte{}, *p)
	}
}

func TestAppendGrows(t *testing.T) {
	a := NewArena()
	var s []int
	for i := 0; i < 1000; i++ {
		s = Append(a, s, i)
	}
	require.Len(t, s, 1000)
	for i, v := range s {
		assert.Equal(t, i, v)
	}
}

func TestMakeSliceCopies(t *testing.T) {
	a := NewArena()
	src := []uint32{1, 2, 3}
	dst := MakeSlice(a, src)
	src[0] = 99
	assert.Equal(t, []uint32{1, 2, 3}, dst)
}

func TestBinaryTreeMap(t *testing.T) {
	a := NewArena()
	var m BinaryTreeMap[int, string]

	_, ok := m.Get(1)
	assert.False(t, ok)

	m.Insert(a, 3, "three")
	m.Insert(a, 1, "one")
	m.Insert(a, 2, "two")

	v, ok := m.Get(2)
	require.True(t, ok)
	assert.Equal(t, "two", v)

	// keys iterate in sorted order
	var keys []int
	for k := range m.Keys() {
		keys = append(keys, k)
	}
	assert.Equal(t, []int{1, 2, 3}, keys)

	assert.True(t, m.Delete(2))
	assert.False(t, m.Delete(2))
	_, ok = m.Get(2)
	assert.False(t, ok)

	// reinserting a deleted key revives it
	m.Insert(a, 2, "again")
	v, ok = m.Get(2)
	require.True(t, ok)
	assert.Equal(t, "again", v)
}
