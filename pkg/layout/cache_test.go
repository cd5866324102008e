package layout

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitspec/pkg/codec"
)

func TestCache_PutGet(t *testing.T) {
	c := NewCache()
	l := packetLayout(t)

	require.NoError(t, c.Put(l))
	assert.ErrorIs(t, c.Put(packetLayout(t)), codec.ErrSchema)

	got, ok := c.Get("packet")
	require.True(t, ok)
	assert.Same(t, l, got)
	_, ok = c.Get("missing")
	assert.False(t, ok)

	other, err := New("alpha", Field{Name: "b", Codec: codec.NewBool()})
	require.NoError(t, err)
	require.NoError(t, c.Put(other))
	assert.Equal(t, []string{"alpha", "packet"}, c.Names())
	assert.Equal(t, 2, c.Len())
}

func TestCache_GetOrBuildOnce(t *testing.T) {
	c := NewCache()
	var calls int32

	build := func() (*Layout, error) {
		atomic.AddInt32(&calls, 1)
		return New("shared", Field{Name: "b", Codec: codec.NewBool()})
	}

	var wg sync.WaitGroup
	results := make([]*Layout, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := c.GetOrBuild("shared", build)
			assert.NoError(t, err)
			results[i] = l
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, l := range results {
		assert.Same(t, results[0], l)
	}
}

func TestCache_GetOrBuildErrors(t *testing.T) {
	c := NewCache()
	boom := errors.New("boom")

	_, err := c.GetOrBuild("x", func() (*Layout, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	_, err = c.GetOrBuild("x", func() (*Layout, error) {
		return New("y", Field{Name: "b", Codec: codec.NewBool()})
	})
	assert.ErrorIs(t, err, codec.ErrSchema)
}
