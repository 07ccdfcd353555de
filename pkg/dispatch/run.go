package dispatch

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/loom-engine/loom/pkg/metrics"
)

// Dispatch runs every layer in order, and every system within a layer
// concurrently. A system's panic is recovered, logged, and surfaced as an
// error from Dispatch rather than crashing the whole cycle; a later
// layer still does not run once an earlier one reports an error, since a
// later layer may depend on state the failed layer was supposed to
// produce.
func (d *Dispatcher) Dispatch(ctx context.Context) error {
	cycle := metrics.NewTimer()
	defer cycle.ObserveDuration(metrics.DispatchCycleDuration)

	for i, layer := range d.layers {
		layerTimer := metrics.NewTimer()
		g, _ := errgroup.WithContext(ctx)
		for _, sys := range layer {
			sys := sys
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						d.log.Error().
							Str("system", sys.Name()).
							Interface("panic", r).
							Msg("system panicked during dispatch")
						metrics.SystemsPanickedTotal.WithLabelValues(sys.Name()).Inc()
						err = fmt.Errorf("dispatch: system %s panicked: %v", sys.Name(), r)
					}
				}()
				return sys.Run()
			})
		}
		err := g.Wait()
		layerTimer.ObserveDurationVec(metrics.DispatchLayerDuration, strconv.Itoa(i))
		if err != nil {
			return fmt.Errorf("dispatch: layer %d: %w", i, err)
		}
	}
	return nil
}
