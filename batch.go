package priceanomaly

import (
	"context"
	"log/slog"

	"github.com/aouyang1/go-priceanomaly/report"
	"github.com/aouyang1/go-priceanomaly/timedataset"
	"github.com/sourcegraph/conc/pool"
)

// Outcome is either the full result of an asset or the error that stopped it
type Outcome struct {
	Result *Result
	Err    error
}

// RunAll runs every asset of the store independently on a bounded pool. A failed asset is
// recorded with its error and never stops the others. Each asset gets its own time budget when
// the options set one.
func (p *Pipeline) RunAll(ctx context.Context, store *timedataset.Store) map[string]Outcome {
	assets := store.Assets()
	outcomes := make([]Outcome, len(assets))

	wp := pool.New().WithMaxGoroutines(p.opt.Parallelization)
	for i, asset := range assets {
		wp.Go(func() {
			outcomes[i] = p.runAsset(ctx, store, asset)
		})
	}
	wp.Wait()

	res := make(map[string]Outcome, len(assets))
	for i, asset := range assets {
		res[asset] = outcomes[i]
	}
	return res
}

func (p *Pipeline) runAsset(ctx context.Context, store *timedataset.Store, asset string) Outcome {
	ds, err := store.Get(asset)
	if err != nil {
		return Outcome{Err: err}
	}

	if p.opt.AssetTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opt.AssetTimeout)
		defer cancel()
	}

	res, err := p.runHoldingSlot(ctx, asset, ds)
	if err != nil {
		slog.Warn("unable to detect anomalies for asset", "asset", asset, "error", err.Error())
		return Outcome{Err: err}
	}
	return Outcome{Result: res}
}

// runHoldingSlot behaves like Run but only returns once the fit has finished, so a timed out
// asset keeps its pool slot and the batch never runs more fits than its parallelization
func (p *Pipeline) runHoldingSlot(ctx context.Context, asset string, ds *timedataset.TimeDataset) (*Result, error) {
	if asset == "" {
		return nil, ErrNoAsset
	}
	if err := ctx.Err(); err != nil {
		return nil, contextError(asset, err)
	}

	done := p.start(asset, ds)
	select {
	case <-ctx.Done():
		<-done
		return nil, contextError(asset, ctx.Err())
	case r := <-done:
		return r.res, r.err
	}
}

// RunBatch runs every asset of the store and keeps only the report or error of each
func (p *Pipeline) RunBatch(ctx context.Context, store *timedataset.Store) report.Batch {
	return NewBatch(p.RunAll(ctx, store))
}

// NewBatch reduces the outcomes of a run to a report batch
func NewBatch(outcomes map[string]Outcome) report.Batch {
	b := make(report.Batch, len(outcomes))
	for asset, o := range outcomes {
		if o.Err != nil {
			b[asset] = report.Outcome{Err: o.Err}
			continue
		}
		b[asset] = report.Outcome{Report: o.Result.Report}
	}
	return b
}
