package validator

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	state := NewStateWithMetrics(NewMetrics(reg))

	wd, roots := approvedRoot(t)
	v := New(Policy{AllowedTools: []string{"Read"}}, roots, state, logr.Discard())

	v.Validate(ToolCall{
		Name:             "Read",
		Input:            map[string]interface{}{"path": "a.go"},
		WorkingDirectory: wd,
	})
	v.Validate(ToolCall{Name: "WebSearch", WorkingDirectory: wd})

	assert.Equal(t, 1.0, testutil.ToFloat64(state.metrics.toolCalls.WithLabelValues("Read")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(state.metrics.violations.WithLabelValues(ViolationDisallowedTool, "WebSearch")))
}
