package wasmbridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleTableLifecycle(t *testing.T) {
	ht := newHandleTable()

	_, ok := ht.lookup(42)
	require.False(t, ok)

	h := &handle{vfsName: "memory", path: "/a.db"}
	ht.store(42, h)

	got, ok := ht.lookup(42)
	require.True(t, ok)
	require.Same(t, h, got)

	ht.delete(42)
	_, ok = ht.lookup(42)
	require.False(t, ok)
}
