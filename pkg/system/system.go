// Package system declares the shape every runnable unit of world logic
// takes: a name, the resources it reads and writes, and a Run method. The
// dispatcher package schedules a set of Systems; it never runs one it
// wasn't given a full, accurate Access declaration for.
package system

// ResourceID names one component type or resource type a system touches.
// World's registration assigns these; a system declares them by whatever
// stable name the world used (typically the Go type name).
type ResourceID string

// Access lists everything a system reads and writes. The dispatcher uses
// it to compute conflicts: two systems that both write the same
// ResourceID, or one writes what another reads, cannot run concurrently
// and must be ordered or layered apart.
type Access struct {
	Reads  []ResourceID
	Writes []ResourceID
}

// System is one unit of per-cycle world logic.
type System interface {
	// Name identifies the system in logs, metrics and dispatcher errors.
	Name() string
	// Access declares what this system touches, so the dispatcher can
	// schedule it without ever running two conflicting systems at once.
	Access() Access
	// Run executes one cycle of the system's logic.
	Run() error
}

// EstimatedCost is an optional interface a System can implement to give
// the dispatcher a scheduling hint: heavier systems are started earlier
// within a layer so lighter systems can fill in the remaining worker
// capacity behind them, reducing the layer's tail latency.
type EstimatedCost interface {
	// EstimatedCost returns a relative cost unit; only ordering between
	// systems in the same layer matters, not its absolute scale.
	EstimatedCost() int
}

// Func adapts a plain function into a System with no declared resource
// access, for systems that only touch resources they fetch by other
// means (for example, directly from a *resource.Container they hold a
// reference to). Most systems should declare real Access so the
// dispatcher can parallelize around them; Func is for systems it must
// always run alone.
type Func struct {
	FuncName string
	Fn       func() error
}

func (f Func) Name() string   { return f.FuncName }
func (f Func) Access() Access { return Access{} }
func (f Func) Run() error     { return f.Fn() }
