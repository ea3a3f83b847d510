package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	cfg := domain.DefaultKernelConfig().ReflexTriggers

	tests := []struct {
		name          string
		in            MetricInput
		wantThreshold *float64
		wantExceeded  bool
	}{
		{"emotion above", MetricInput{Type: domain.MetricEmotionConflict, Value: 0.75}, ptr(0.7), true},
		{"emotion below", MetricInput{Type: domain.MetricEmotionConflict, Value: 0.65}, ptr(0.7), false},
		{"emotion at threshold", MetricInput{Type: domain.MetricEmotionConflict, Value: 0.7}, ptr(0.7), true},
		{"failures at threshold", MetricInput{Type: domain.MetricRepeatedFailure, Value: 2}, ptr(2), true},
		{"failures below", MetricInput{Type: domain.MetricRepeatedFailure, Value: 1}, ptr(2), false},
		{"goal progress has no threshold", MetricInput{Type: domain.MetricGoalProgress, Value: -4}, nil, false},
		{"belief shift has no threshold", MetricInput{Type: domain.MetricBeliefShift, Value: 0.99}, nil, false},
		{"motivation drop has no threshold", MetricInput{Type: domain.MetricMotivationDrop, Value: 1}, nil, false},
		{"override applies to shift", MetricInput{Type: domain.MetricBeliefShift, Value: 0.5, ThresholdOverride: ptr(0.4)}, ptr(0.4), true},
		{"override replaces kernel threshold", MetricInput{Type: domain.MetricEmotionConflict, Value: 0.75, ThresholdOverride: ptr(0.9)}, ptr(0.9), false},
		{"fractional failure override rounds up", MetricInput{Type: domain.MetricRepeatedFailure, Value: 2, ThresholdOverride: ptr(2.5)}, ptr(2.5), false},
		{"fractional failure override reached", MetricInput{Type: domain.MetricRepeatedFailure, Value: 3, ThresholdOverride: ptr(2.5)}, ptr(2.5), true},
		{"huge failure count", MetricInput{Type: domain.MetricRepeatedFailure, Value: 1e19}, ptr(2), true},
		{"failures beyond int64 override", MetricInput{Type: domain.MetricRepeatedFailure, Value: 1e19, ThresholdOverride: ptr(1e20)}, ptr(1e20), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			threshold, exceeded, err := Classify(cfg, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantExceeded, exceeded)
			if tt.wantThreshold == nil {
				assert.Nil(t, threshold)
			} else {
				require.NotNil(t, threshold)
				assert.InDelta(t, *tt.wantThreshold, *threshold, 1e-9)
			}
		})
	}
}

func TestClassify_Invalid(t *testing.T) {
	cfg := domain.DefaultKernelConfig().ReflexTriggers
	for _, in := range []MetricInput{
		{Type: "mood", Value: 1},
		{Type: domain.MetricRepeatedFailure, Value: 1.5},
		{Type: domain.MetricRepeatedFailure, Value: -1},
	} {
		_, _, err := Classify(cfg, in)
		assert.ErrorIs(t, err, domain.ErrValidation, "input %+v", in)
	}
}

func TestMetricService_RecordEmotionThreshold(t *testing.T) {
	ctx := context.Background()
	ms := newMockMetricStore()
	svc := NewMetricService(ms, testLogger())
	kernel := domain.DefaultKernelConfig()

	high, err := svc.Record(ctx, kernel, testSubject, MetricInput{Type: domain.MetricEmotionConflict, Value: 0.75})
	require.NoError(t, err)
	assert.True(t, high.Exceeded)
	assert.Equal(t, "Initiate belief reassessment conversation", high.SuggestedAction)
	assert.Equal(t, domain.DefaultKernelVersion, high.KernelVersion)

	low, err := svc.Record(ctx, kernel, testSubject, MetricInput{Type: domain.MetricEmotionConflict, Value: 0.65})
	require.NoError(t, err)
	assert.False(t, low.Exceeded)
	assert.Empty(t, low.SuggestedAction)

	// Both rows are kept; the first is never rewritten.
	rows := ms.byType(domain.MetricEmotionConflict)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Exceeded)
	assert.InDelta(t, 0.75, rows[0].Value, 1e-9)
}

func TestMetricService_ThresholdCapturedAtWrite(t *testing.T) {
	ctx := context.Background()
	svc := NewMetricService(newMockMetricStore(), testLogger())

	kernel := domain.DefaultKernelConfig()
	m, err := svc.Record(ctx, kernel, testSubject, MetricInput{Type: domain.MetricEmotionConflict, Value: 0.72})
	require.NoError(t, err)

	kernel.ReflexTriggers.EmotionConflictThreshold = 0.9
	require.NotNil(t, m.Threshold)
	assert.InDelta(t, 0.7, *m.Threshold, 1e-9)
}

func TestMetricService_InvalidWritesNothing(t *testing.T) {
	ms := newMockMetricStore()
	svc := NewMetricService(ms, testLogger())

	_, err := svc.Record(context.Background(), domain.DefaultKernelConfig(), testSubject,
		MetricInput{Type: domain.MetricRepeatedFailure, Value: 0.5})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, ms.byType(domain.MetricRepeatedFailure))

	_, err = svc.Record(context.Background(), domain.DefaultKernelConfig(), domain.Subject{TenantID: "t"},
		MetricInput{Type: domain.MetricEmotionConflict, Value: 0.5})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMetricService_StorageError(t *testing.T) {
	ms := newMockMetricStore()
	ms.err = errors.New("disk full")
	svc := NewMetricService(ms, testLogger())

	_, err := svc.Record(context.Background(), domain.DefaultKernelConfig(), testSubject,
		MetricInput{Type: domain.MetricEmotionConflict, Value: 0.5})
	assert.ErrorIs(t, err, domain.ErrStorage)

	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create metric", se.Op)
}

func TestMetricService_LatestAndSeries(t *testing.T) {
	ctx := context.Background()
	svc := NewMetricService(newMockMetricStore(), testLogger())
	kernel := domain.DefaultKernelConfig()

	_, err := svc.Latest(ctx, testSubject, domain.MetricEmotionConflict)
	assert.ErrorIs(t, err, ErrMetricNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range []float64{0.1, 0.4, 0.8} {
		_, err := svc.Record(ctx, kernel, testSubject, MetricInput{
			Type: domain.MetricEmotionConflict, Value: v, MeasuredAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	latest, err := svc.Latest(ctx, testSubject, domain.MetricEmotionConflict)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, latest.Value, 1e-9)

	series, err := svc.Series(ctx, testSubject, domain.MetricEmotionConflict, base.Add(30*time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.InDelta(t, 0.8, series[0].Value, 1e-9)
	assert.InDelta(t, 0.4, series[1].Value, 1e-9)

	empty, err := svc.Series(ctx, testSubject, domain.MetricMotivationDrop, time.Time{}, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.Series(ctx, testSubject, "mood", time.Time{}, 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
