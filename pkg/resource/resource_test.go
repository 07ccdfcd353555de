package resource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type Config struct{ Tick int }

func TestInsertReadWrite(t *testing.T) {
	c := New()
	Insert(c, Config{Tick: 1})

	r := Read[Config](c)
	require.Equal(t, 1, r.Get().Tick)
	r.Release()

	w := Write[Config](c)
	w.Get().Tick = 2
	w.Release()

	r2 := Read[Config](c)
	require.Equal(t, 2, r2.Get().Tick)
	r2.Release()
}

func TestConcurrentReadersAllowed(t *testing.T) {
	c := New()
	Insert(c, Config{Tick: 1})

	r1 := Read[Config](c)
	r2 := Read[Config](c)
	r1.Release()
	r2.Release()
}

func TestWriteWhileReadHeldPanics(t *testing.T) {
	c := New()
	Insert(c, Config{Tick: 1})
	r := Read[Config](c)
	defer r.Release()

	require.Panics(t, func() { Write[Config](c) })
}

func TestReadWhileWriteHeldPanics(t *testing.T) {
	c := New()
	Insert(c, Config{Tick: 1})
	w := Write[Config](c)
	defer w.Release()

	require.Panics(t, func() { Read[Config](c) })
}

func TestUnregisteredResourcePanics(t *testing.T) {
	c := New()
	require.Panics(t, func() { Read[Config](c) })
}

func TestSetPreservesPointerIdentityAcrossGuards(t *testing.T) {
	c := New()
	Insert(c, Config{Tick: 1})

	w := Write[Config](c)
	w.Set(Config{Tick: 99})
	w.Release()

	r := Read[Config](c)
	require.Equal(t, 99, r.Get().Tick)
	r.Release()
}
