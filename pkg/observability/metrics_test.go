package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := NewMetrics(nil)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnNodeEnter(ctx, &domain.NodeEvent{NodeID: "greet"})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{NodeID: "greet"})
	hooks.OnSlotTransition(ctx, &domain.SlotEvent{To: domain.PhaseNoMatch, Step: domain.StepNoMatch, Level: 2})
	hooks.OnSlotTransition(ctx, &domain.SlotEvent{To: domain.PhaseConfirming, Step: domain.StepConfirmation, Level: 1})
	hooks.OnResolutionGap(ctx, &domain.GapEvent{Gap: domain.ResolutionGap{TaskID: "hello"}})
	hooks.OnTaskState(ctx, &domain.TaskEvent{Kind: domain.TaskGetData, To: domain.TaskExecuted})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("greet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Escalations.WithLabelValues("noMatch", "2")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Escalations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolutionGaps.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskStates.WithLabelValues("get_data", "executed")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(nil)
	m.Hooks().OnNodeEnter(context.Background(), &domain.NodeEvent{NodeID: "n1"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `slotflow_node_visits_total{node_id="n1"} 1`))
}
