package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics("test", reg), reg
}

func TestMetrics_RecordRun(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordRun("RULE_BASED", "success", 2*time.Second)
	m.RecordRun("RULE_BASED", "success", time.Second)
	m.RecordRun("", "error", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("RULE_BASED", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("none", "error")))
	assert.NotZero(t, testutil.ToFloat64(m.LastSuccessfulRun))
}

func TestMetrics_RecordScores(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.RecordScores("PROBABILITY", []int{0, 750, 1000})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.WalletsScored))

	count, err := testutil.GatherAndCount(reg, "test_scoring_score")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_RecordRecordsSkipped(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordRecordsSkipped(0)
	m.RecordRecordsSkipped(4)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.RecordsSkipped))
}

func TestMetrics_RecordSubgraphAndDB(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordSubgraphRequest("borrows", nil, 10*time.Millisecond)
	m.RecordSubgraphRequest("borrows", errors.New("timeout"), 10*time.Millisecond)
	m.RecordWalletFetched()
	m.RecordDBQuery("insert_run", errors.New("boom"), time.Millisecond)
	m.RecordDBQuery("insert_run", nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubgraphRequests.WithLabelValues("borrows", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubgraphRequests.WithLabelValues("borrows", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WalletsFetched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("insert_run")))
}
