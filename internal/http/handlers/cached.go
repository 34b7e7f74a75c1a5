package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/geocoder89/bidashboard/internal/cache"
	"github.com/geocoder89/bidashboard/internal/observability"
	"github.com/gin-gonic/gin"
)

// aggregates serves read-only aggregate payloads through the response cache. A cache
// failure degrades to computing the payload; it never fails the request.
type aggregates struct {
	cache cache.Store
	prom  *observability.Prom
}

func newAggregates(store cache.Store, prom *observability.Prom) aggregates {
	if store == nil {
		store = cache.Nop{}
	}
	return aggregates{cache: store, prom: prom}
}

func (a aggregates) serve(ctx *gin.Context, endpoint, key string, compute func(context.Context) (any, error)) {
	reqCtx := ctx.Request.Context()

	b, hit, err := a.cache.Get(reqCtx, key)
	switch {
	case err != nil:
		a.prom.ObserveCache(endpoint, "error")
		slog.Default().WarnContext(reqCtx, "cache get failed", "endpoint", endpoint, "err", err)
	case hit:
		a.prom.ObserveCache(endpoint, "hit")
		respondDataWithETag(ctx, b)
		return
	default:
		a.prom.ObserveCache(endpoint, "miss")
	}

	// read before computing so a mutation that lands meanwhile discards this payload
	gen, genErr := a.cache.Generation(reqCtx)

	payload, err := compute(reqCtx)
	if err != nil {
		RespondInternal(ctx, "Failed to get "+endpoint+" data.", err)
		return
	}

	b, err = json.Marshal(payload)
	if err != nil {
		RespondInternal(ctx, "Failed to encode "+endpoint+" data.", err)
		return
	}

	if genErr != nil {
		slog.Default().WarnContext(reqCtx, "cache generation failed", "endpoint", endpoint, "err", genErr)
	} else if err := a.cache.Set(reqCtx, key, gen, b); err != nil {
		slog.Default().WarnContext(reqCtx, "cache set failed", "endpoint", endpoint, "err", err)
	}

	respondDataWithETag(ctx, b)
}

// invalidate retires every cached aggregate after a mutation.
func (a aggregates) invalidate(ctx context.Context) {
	if err := a.cache.Invalidate(ctx); err != nil {
		slog.Default().WarnContext(ctx, "cache invalidate failed", "err", err)
	}
}
