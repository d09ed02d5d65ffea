package service

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/beacon-attendance-api/pkg/jobs"
)

var _ jobs.Metrics = (*MetricsService)(nil)

func TestMetricsServiceQueueCollectors(t *testing.T) {
	svc := NewMetricsService()

	svc.ObserveQueueDepth("scan-processing", 3)
	svc.ObserveQueueDepth("scan-processing", 1)
	svc.ObserveJobRetried("scan-processing")
	svc.ObserveJobRetried("scan-processing")

	depth := svc.queueDepth.WithLabelValues("scan-processing")
	require.InDelta(t, 1.0, testutil.ToFloat64(depth), 0.001, "gauge holds the latest depth")

	retried := svc.jobsRetried.WithLabelValues("scan-processing")
	assert.InDelta(t, 2.0, testutil.ToFloat64(retried), 0.001)
}

func TestMetricsServiceScanCounters(t *testing.T) {
	svc := NewMetricsService()

	svc.ObserveScanAccepted()
	svc.ObserveScanRejected("session_not_active")
	svc.ObserveMessage("scan-processing", "ok")

	assert.InDelta(t, 1.0, testutil.ToFloat64(svc.scansAccepted), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(svc.scansRejected.WithLabelValues("session_not_active")), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(svc.messagesHandled.WithLabelValues("scan-processing", "ok")), 0.001)
}
