package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/kintree/pkg/observability"
)

func TestHooksRecord(t *testing.T) {
	ctx := context.Background()
	h := New(prometheus.NewRegistry())

	h.OnCacheHit(ctx, "layout")
	h.OnCacheHit(ctx, "layout")
	h.OnCacheMiss(ctx, "artifact")
	h.OnCacheSet(ctx, "artifact", 512)
	h.OnLayoutComplete(ctx, "layered", time.Millisecond, errors.New("boom"))
	h.OnRequest(ctx, "GET", "/api/v1/members", 200, time.Millisecond)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"layout hits", h.cacheLookups.WithLabelValues("layout", "hit"), 2},
		{"artifact misses", h.cacheLookups.WithLabelValues("artifact", "miss"), 1},
		{"bytes", h.cacheBytes.WithLabelValues("artifact"), 512},
		{"layout errors", h.stageErrors.WithLabelValues("layout"), 1},
		{"requests", h.httpRequests.WithLabelValues("GET", "/api/v1/members", "200"), 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %g, want %g", tt.name, got, tt.want)
		}
	}
}

func TestRegister(t *testing.T) {
	defer observability.Reset()
	h := New(prometheus.NewRegistry())
	h.Register()
	if observability.Cache() != h || observability.HTTP() != h {
		t.Error("Register did not install the hooks")
	}
}
