package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/opinions/pkg/middleware"
	"github.com/vango-dev/opinions/pkg/opinion"
)

// instruments carries the observer and tracing wrappers for one command.
type instruments struct {
	enabled bool
	reg     *prometheus.Registry
	metrics *middleware.Metrics
}

func (g *globals) instruments() *instruments {
	reg := prometheus.NewRegistry()
	return &instruments{
		enabled: g.stats,
		reg:     reg,
		metrics: middleware.NewMetrics(middleware.WithRegistry(reg)),
	}
}

// store wraps s with client spans.
func (in *instruments) store(s opinion.Store) opinion.Store {
	return middleware.TraceStore(s, middleware.WithTracerName("opinions-cli"))
}

// report prints the runner counters when --stats is set.
func (in *instruments) report(w io.Writer) {
	if !in.enabled {
		return
	}
	families, err := in.reg.Gather()
	if err != nil {
		warn(w, "stats unavailable: %v", err)
		return
	}
	fmt.Fprintln(w, faint("stats:"))
	for _, f := range families {
		if !strings.Contains(f.GetName(), "action") && !strings.Contains(f.GetName(), "validation") {
			continue
		}
		for _, m := range f.GetMetric() {
			switch f.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "  %s%s %g\n", f.GetName(), labels(m), m.GetCounter().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Fprintf(w, "  %s%s count=%d sum=%.3fs\n", f.GetName(), labels(m), h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}

func labels(m *dto.Metric) string {
	pairs := m.GetLabel()
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}
