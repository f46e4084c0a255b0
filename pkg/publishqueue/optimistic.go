package publishqueue

import (
	"context"

	"github.com/google/uuid"

	"github.com/cuemby/cachecore/pkg/handle"
	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/normalize"
	"github.com/cuemby/cachecore/pkg/source"
)

// OptimisticUpdate is one of the three variants described by the data
// model: a raw record source plus the handle payloads normalization
// produced for it, an updater closure given direct Proxy access, or an
// operation plus a raw response to be normalized at apply time. Build one
// with NewSourceOptimisticUpdate, NewUpdaterOptimisticUpdate, or
// NewPayloadOptimisticUpdate; the zero value is not valid.
type OptimisticUpdate struct {
	id       string
	src      source.Source
	payloads []normalize.HandleFieldPayload
	updater  func(proxy *source.Proxy)

	op             *ir.OperationDescriptor
	response       map[string]any
	payloadUpdater func(proxy *source.SelectorProxy)
}

// NewSourceOptimisticUpdate builds the {source, fieldPayloads} variant,
// typically the result of normalizing a client-constructed response.
func NewSourceOptimisticUpdate(src source.Source, payloads []normalize.HandleFieldPayload) OptimisticUpdate {
	return OptimisticUpdate{id: uuid.NewString(), src: src, payloads: payloads}
}

// NewUpdaterOptimisticUpdate builds the updater-closure variant: fn is
// given a Proxy bound to the optimistic layer's shared sink and writes to
// it directly.
func NewUpdaterOptimisticUpdate(fn func(proxy *source.Proxy)) OptimisticUpdate {
	return OptimisticUpdate{id: uuid.NewString(), updater: fn}
}

// NewPayloadOptimisticUpdate builds the {operation, response} variant: a
// raw response shaped for op is normalized into the optimistic layer's
// sink each time the layer rebases, rather than normalized once up front.
// updater, if non-nil, runs after normalization with a SelectorProxy bound
// to op's reader selection, for adjustments the normalized shape alone
// can't express (spec.md §3, §4.6).
func NewPayloadOptimisticUpdate(op *ir.OperationDescriptor, response map[string]any, updater func(proxy *source.SelectorProxy)) OptimisticUpdate {
	return OptimisticUpdate{id: uuid.NewString(), op: op, response: response, payloadUpdater: updater}
}

func (u OptimisticUpdate) apply(ctx context.Context, proxy *source.Proxy, handles *handle.Registry) error {
	switch {
	case u.updater != nil:
		u.updater(proxy)
		return nil
	case u.op != nil:
		return u.applyPayload(ctx, proxy, handles)
	default:
		proxy.PublishSource(u.src)
		if handles != nil && len(u.payloads) > 0 {
			return handles.Apply(proxy, u.payloads)
		}
		return nil
	}
}

// applyPayload normalizes u.response into a fresh sink using u.op's
// normalization selection, merges that sink into proxy, runs any handle
// field payloads normalization produced, and finally hands u.payloadUpdater
// a SelectorProxy scoped to u.op's reader selection (spec.md §4.6: "run
// normalization of the response into the sink via the proxy's
// commitPayload").
func (u OptimisticUpdate) applyPayload(ctx context.Context, proxy *source.Proxy, handles *handle.Registry) error {
	sel := ir.NormalizationSelector{
		Node:      u.op.NormalizationSelection,
		DataID:    u.op.RootDataID,
		Variables: u.op.Variables,
	}
	sink := source.New()
	payloads, err := normalize.Normalize(ctx, sel, u.response, sink, normalize.Options{})
	if err != nil {
		return err
	}
	proxy.PublishSource(sink)
	if handles != nil && len(payloads) > 0 {
		if err := handles.Apply(proxy, payloads); err != nil {
			return err
		}
	}
	if u.payloadUpdater != nil {
		readerSel := ir.ReaderSelector{
			Node:      u.op.ReaderSelection,
			DataID:    u.op.RootDataID,
			Variables: u.op.Variables,
		}
		u.payloadUpdater(source.NewSelectorProxy(proxy, readerSel))
	}
	return nil
}
