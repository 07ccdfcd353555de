package join

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loom-engine/loom/pkg/bitset"
	"github.com/loom-engine/loom/pkg/entity"
	"github.com/loom-engine/loom/pkg/storage"
)

type pos struct{ X, Y int }
type vel struct{ DX, DY int }

func setup(t *testing.T) (*entity.Allocator, *storage.Storage[pos], *storage.Storage[vel]) {
	t.Helper()
	alloc := entity.New()
	positions := storage.New(alloc, storage.NewMaskedStorage[pos](storage.NewDenseStorage[pos]()))
	velocities := storage.New(alloc, storage.NewMaskedStorage[vel](storage.NewDenseStorage[vel]()))
	return alloc, positions, velocities
}

func TestJoin2SparseIntersection(t *testing.T) {
	alloc, positions, velocities := setup(t)

	e0 := alloc.Allocate()
	e1 := alloc.Allocate()
	e2 := alloc.Allocate()

	positions.Insert(e0, pos{1, 1})
	positions.Insert(e1, pos{2, 2})
	positions.Insert(e2, pos{3, 3})
	velocities.Insert(e1, vel{9, 9})

	rows := Join2(From(positions), From(velocities))
	require.Len(t, rows, 1)
	require.Equal(t, e1.Index, rows[0].Entity)
	require.Equal(t, pos{2, 2}, *rows[0].A)
	require.Equal(t, vel{9, 9}, *rows[0].B)
}

func TestMaybeJoinNeverNarrowsMask(t *testing.T) {
	alloc, positions, velocities := setup(t)

	e0 := alloc.Allocate()
	e1 := alloc.Allocate()
	positions.Insert(e0, pos{1, 1})
	positions.Insert(e1, pos{2, 2})
	velocities.Insert(e1, vel{9, 9})

	rows := Join2(From(positions), Maybe(From(velocities)))
	require.Len(t, rows, 2)
	for _, r := range rows {
		if r.Entity == e0.Index {
			require.False(t, r.B.Present)
		}
		if r.Entity == e1.Index {
			require.True(t, r.B.Present)
			require.Equal(t, vel{9, 9}, *r.B.Value)
		}
	}
}

func TestNotJoinExcludesPresentComponent(t *testing.T) {
	alloc, positions, velocities := setup(t)

	e0 := alloc.Allocate()
	e1 := alloc.Allocate()
	positions.Insert(e0, pos{1, 1})
	positions.Insert(e1, pos{2, 2})
	velocities.Insert(e1, vel{9, 9})

	rows := Join2(From(positions), Not(From(velocities)))
	require.Len(t, rows, 1)
	require.Equal(t, e0.Index, rows[0].Entity)
}

func TestLend2StopsEarly(t *testing.T) {
	alloc, positions, velocities := setup(t)
	for i := 0; i < 5; i++ {
		e := alloc.Allocate()
		positions.Insert(e, pos{i, i})
		velocities.Insert(e, vel{i, i})
	}

	var visited int
	for range Lend2(From(positions), From(velocities)) {
		visited++
		if visited == 2 {
			break
		}
	}
	require.Equal(t, 2, visited)
}

func TestParJoin2DistinctConcurrentMutation(t *testing.T) {
	alloc, positions, velocities := setup(t)
	const n = 200
	for i := 0; i < n; i++ {
		e := alloc.Allocate()
		positions.Insert(e, pos{i, i})
		velocities.Insert(e, vel{1, 1})
	}

	var mu sync.Mutex
	seen := make(map[Index]bool)
	err := ParJoin2(FromDistinct(positions), FromDistinct(velocities), 4, func(id Index, p *pos, v *vel) {
		p.X += v.DX
		p.Y += v.DY
		mu.Lock()
		seen[id] = true
		mu.Unlock()
	})
	require.NoError(t, err)
	require.Len(t, seen, n)
}

func TestEntriesInsertsDefaultDuringJoin(t *testing.T) {
	alloc, positions, velocities := setup(t)
	e := alloc.Allocate()
	positions.Insert(e, pos{1, 1})

	rows := Join2(From(positions), Entries(velocities))
	require.Len(t, rows, 1)
	v := rows[0].B.OrInsertWith(func() vel { return vel{5, 5} })
	require.Equal(t, vel{5, 5}, *v)

	got, ok := velocities.Get(e)
	require.True(t, ok)
	require.Equal(t, vel{5, 5}, *got)
}

func TestRestrictReadsOtherComponentForSameEntity(t *testing.T) {
	alloc, positions, velocities := setup(t)
	e0 := alloc.Allocate()
	e1 := alloc.Allocate()
	positions.Insert(e0, pos{1, 1})
	positions.Insert(e1, pos{2, 2})
	velocities.Insert(e1, vel{9, 9})

	src := Restrict(positions)
	var withVel, withoutVel int
	bitset.Each(src.Mask(), func(id Index) {
		acc := src.Fetch(id)
		if v, ok := GetOther(acc, velocities); ok {
			withVel++
			require.Equal(t, vel{9, 9}, *v)
		} else {
			withoutVel++
		}
	})
	require.Equal(t, 1, withVel)
	require.Equal(t, 1, withoutVel)
}
