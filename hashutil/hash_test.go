package hashutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeV2AddressIsBitStable(t *testing.T) {
	a := MakeV2Address("test")
	b := MakeV2Address("test")
	assert.Equal(t, a, b)
	assert.Len(t, a, 10)
	assert.True(t, IsV2Address(a))
}

func TestMakeV2AddressPrefix(t *testing.T) {
	addr := MakeV2Address("some private key")
	assert.Equal(t, byte('t'), addr[0])
}

func TestMakeV2AddressDistinctKeys(t *testing.T) {
	assert.NotEqual(t, MakeV2Address("key-one"), MakeV2Address("key-two"))
}

func TestSha256HexConcatenatesParts(t *testing.T) {
	assert.Equal(t, Sha256Hex("a", "b"), Sha256Hex("ab"))
}

func TestIsV2Address(t *testing.T) {
	assert.True(t, IsV2Address("t1234abcde"))
	assert.False(t, IsV2Address("T1234ABCDE"))
	assert.False(t, IsV2Address("t123"))
}

func TestIsAnyAddress(t *testing.T) {
	assert.True(t, IsAnyAddress("t1234abcde"))
	assert.True(t, IsAnyAddress("abcdef0123"))
	assert.False(t, IsAnyAddress("not-an-address"))
}

func TestIsValidName(t *testing.T) {
	assert.True(t, IsValidName("myname"))
	assert.False(t, IsValidName(""))
	assert.False(t, IsValidName("My-Name!"))
}

func TestIsValidMetadata(t *testing.T) {
	assert.True(t, IsValidMetadata("hello world"))
	assert.False(t, IsValidMetadata(string(make([]byte, 256))))
}
