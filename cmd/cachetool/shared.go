package main

import (
	"context"
	"fmt"

	"github.com/cuemby/cachecore/pkg/fixture"
	"github.com/cuemby/cachecore/pkg/handle"
	"github.com/cuemby/cachecore/pkg/normalize"
	"github.com/cuemby/cachecore/pkg/scheduler"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/store"
)

// defaultHandleRegistry wires the connection handler every cachetool
// command gets for free, since @__clientField(handle: "connection") is
// the only handler this codebase ships.
func defaultHandleRegistry() *handle.Registry {
	reg := handle.NewRegistry()
	reg.Register("connection", handle.ConnectionHandler{})
	return reg
}

// loadAndNormalize reads opPath and every responsePath in order, building
// a fresh store.Store and normalizing each response into it via
// Store.Publish, as if each were a separate network round trip against
// the same operation (the way a sequence of @defer payloads would
// arrive).
func loadAndNormalize(ctx context.Context, opPath string, responsePaths []string) (*store.Store, *fixture.Operation, error) {
	op, err := fixture.LoadOperation(opPath)
	if err != nil {
		return nil, nil, err
	}

	st := store.New(scheduler.Immediate)
	handles := defaultHandleRegistry()

	for _, respPath := range responsePaths {
		resp, err := fixture.LoadResponse(respPath)
		if err != nil {
			return nil, nil, err
		}

		sink := source.New()
		payloads, err := normalize.Normalize(ctx, op.NormalizationSelector(), resp, sink, normalize.Options{})
		if err != nil {
			return nil, nil, fmt.Errorf("cachetool: normalize %q: %w", respPath, err)
		}
		st.Publish(ctx, sink)

		if len(payloads) > 0 {
			mutator := st.NewMutator(nil)
			proxy := source.NewProxy(mutator)
			if err := handles.Apply(proxy, payloads); err != nil {
				return nil, nil, fmt.Errorf("cachetool: apply handle payloads for %q: %w", respPath, err)
			}
			st.Publish(ctx, mutator.Sink())
		}
	}

	return st, op, nil
}
