package world

import (
	"github.com/loom-engine/loom/pkg/bitset"
	"github.com/loom-engine/loom/pkg/entity"
	"github.com/loom-engine/loom/pkg/join"
)

type entitySource struct {
	w *World
}

func (s entitySource) Mask() bitset.Like {
	return bitset.Or{A: s.w.alloc.Alive(), B: s.w.alloc.Raised()}
}

func (s entitySource) Fetch(id join.Index) entity.Entity {
	return s.w.alloc.CurrentEntity(id)
}

// Entities returns a join Source over every alive-or-pending-alive entity,
// for joining the entity itself alongside its components (Join2(w.Entities(), join.From(positions))).
func (w *World) Entities() join.Source[entity.Entity] {
	return entitySource{w: w}
}
