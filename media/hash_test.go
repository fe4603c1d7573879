package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_KnownVectors(t *testing.T) {
	assert.Equal(t,
		"cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e",
		Hash(nil))
	assert.Equal(t,
		"ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f",
		Hash([]byte("abc")))
}

func TestHash_Deterministic(t *testing.T) {
	buf := pngBytes(t, 16, 16)
	first := Hash(buf)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Hash(append([]byte(nil), buf...)))
	}
	assert.Len(t, first, HashLength)
	assert.True(t, ValidHash(first))
	assert.NotEqual(t, first, Hash(buf[:len(buf)-1]))
}

func TestValidHash(t *testing.T) {
	assert.False(t, ValidHash(""))
	assert.False(t, ValidHash(strings.Repeat("a", HashLength-1)))
	assert.False(t, ValidHash(strings.Repeat("A", HashLength)))
	assert.False(t, ValidHash(strings.Repeat("g", HashLength)))
	assert.True(t, ValidHash(strings.Repeat("0f", HashLength/2)))
}
