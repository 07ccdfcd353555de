package change

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loom-engine/loom/pkg/entity"
	"github.com/loom-engine/loom/pkg/storage"
)

func TestChannelIndependentReaderCursors(t *testing.T) {
	c := NewChannel()
	r1 := c.RegisterReader()
	c.Write(Event{Kind: Inserted, Index: 1})
	r2 := c.RegisterReader()
	c.Write(Event{Kind: Modified, Index: 1})

	got1 := c.Drain(r1)
	require.Len(t, got1, 2)

	got2 := c.Drain(r2)
	require.Len(t, got2, 1)
	require.Equal(t, Modified, got2[0].Kind)
}

func TestChannelCompactsOnceAllReadersPass(t *testing.T) {
	c := NewChannel()
	r := c.RegisterReader()
	c.Write(Event{Kind: Inserted, Index: 1})
	c.Drain(r)
	require.Equal(t, 0, c.Len())
}

func TestFlaggedEmitsInsertedAndRemoved(t *testing.T) {
	f := NewFlagged[int](storage.NewDenseStorage[int]())
	r := f.Channel().RegisterReader()

	f.Insert(0, 42)
	f.Remove(0)

	events := f.Channel().Drain(r)
	require.Len(t, events, 2)
	require.Equal(t, Inserted, events[0].Kind)
	require.Equal(t, Removed, events[1].Kind)
}

func TestFlaggedGetAloneEmitsNothing(t *testing.T) {
	f := NewFlagged[int](storage.NewDenseStorage[int]())
	r := f.Channel().RegisterReader()
	f.Insert(0, 1)
	f.Channel().Drain(r)

	_ = f.Get(0)
	require.Empty(t, f.Channel().Drain(r), "a bare Get must never emit Modified")
}

func TestModifyGuardOnlyFlagsOnCommit(t *testing.T) {
	f := NewFlagged[int](storage.NewDenseStorage[int]())
	r := f.Channel().RegisterReader()
	f.Insert(0, 1)
	f.Channel().Drain(r)

	g := f.Guard(0)
	*g.Value() = 2
	require.Empty(t, f.Channel().Drain(r), "no event until Commit")

	g.Commit()
	events := f.Channel().Drain(r)
	require.Len(t, events, 1)
	require.Equal(t, Modified, events[0].Kind)
}

func TestFlaggedStorageComposesWithMaskedStorage(t *testing.T) {
	alloc := entity.New()
	e := alloc.Allocate()
	s := storage.New(alloc, storage.NewMaskedStorage[int](NewFlagged[int](storage.NewDenseStorage[int]())))

	s.Insert(e, 5)
	v, ok := s.Get(e)
	require.True(t, ok)
	require.Equal(t, 5, *v)
}
