package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashLeafIsDeterministic(t *testing.T) {
	data := []byte("leaf-payload")
	require.Equal(t, HashLeaf(data), HashLeaf(data))
	require.NotEqual(t, HashLeaf(data), HashLeaf([]byte("other-payload")))
}

func TestNewHasherFoldMatchesHash256(t *testing.T) {
	data := []byte("streamed")
	h := NewHasher()
	h.Write(data)
	streamed := h.Sum(nil)

	direct := Hash256(data)
	require.Equal(t, direct[:], streamed)
}
