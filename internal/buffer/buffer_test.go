package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_PushGet(t *testing.T) {
	var b Buffer[int]
	for i := 0; i < 100; i++ {
		b.Push(i * 3)
	}

	require.Equal(t, 100, b.Len())
	for i := 0; i < 100; i++ {
		v, ok := b.Get(i)
		require.True(t, ok)
		assert.Equal(t, i*3, v)
	}
}

func TestBuffer_GetOutOfRange(t *testing.T) {
	var b Buffer[string]
	b.Push("only")

	_, ok := b.Get(1)
	assert.False(t, ok)
	_, ok = b.Get(-1)
	assert.False(t, ok)
}

func TestBuffer_DoublingGrowth(t *testing.T) {
	b := New[byte](2)
	b.Append([]byte("abc")...)
	assert.Equal(t, 3, b.Len())
	assert.GreaterOrEqual(t, b.Cap(), 4)

	before := b.Cap()
	b.Append(make([]byte, before*3)...)
	assert.GreaterOrEqual(t, b.Cap(), before*2)
}

func TestBuffer_Shift(t *testing.T) {
	var b Buffer[int]
	b.Append(1, 2, 3)

	v, ok := b.Shift()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = b.Shift()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	assert.Equal(t, 1, b.Len())

	b.Shift()
	_, ok = b.Shift()
	assert.False(t, ok)
}

func TestBuffer_Discard(t *testing.T) {
	var b Buffer[byte]
	b.Append([]byte("abcdef")...)

	b.Discard(4)
	assert.Equal(t, []byte("ef"), b.Items())

	b.Discard(10)
	assert.Equal(t, 0, b.Len())
}

func TestBuffer_Reset(t *testing.T) {
	var b Buffer[int]
	b.Append(1, 2, 3)
	capBefore := b.Cap()

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, capBefore, b.Cap())
}

func TestBuffer_Resize(t *testing.T) {
	var b Buffer[int]
	b.Append(1, 2)
	b.Resize(64)

	assert.GreaterOrEqual(t, b.Cap(), 64)
	v, ok := b.Get(1)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	// Shrinking below length is ignored.
	b.Resize(1)
	assert.Equal(t, 2, b.Len())
}
