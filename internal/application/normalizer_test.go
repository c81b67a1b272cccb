package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"grapeguard/internal/domain/entity"
)

func fixedNormalizer(healthy float64, now time.Time) *ReportNormalizer {
	n := NewReportNormalizer(healthy)
	n.now = func() time.Time { return now }
	return n
}

func TestReportNormalizer_EmptyDetectionsIsHealthy(t *testing.T) {
	now := time.Now()
	n := fixedNormalizer(DefaultHealthyConfidence, now)

	report := n.Normalize(&entity.Classification{Method: entity.MethodModel}, now, true)
	require.Equal(t, "Healthy", report.Disease)
	require.Equal(t, 5, report.ClassID)
	require.Equal(t, entity.SeverityNone, report.Severity)
	require.Equal(t, 95.0, report.Confidence)
	require.GreaterOrEqual(t, report.Confidence, 90.0)
	require.Equal(t, entity.MethodModelNoDetections, report.Method)
	require.Empty(t, report.Detections)
	require.NotEmpty(t, report.RequestID)
	require.NotEmpty(t, report.Recommendations)
}

func TestReportNormalizer_HealthyConfidenceBounds(t *testing.T) {
	require.Equal(t, 92.5, NewReportNormalizer(92.5).HealthyConfidence)
	require.Equal(t, DefaultHealthyConfidence, NewReportNormalizer(50).HealthyConfidence)
	require.Equal(t, DefaultHealthyConfidence, NewReportNormalizer(101).HealthyConfidence)
}

func TestReportNormalizer_BestDetectionFirstOnTie(t *testing.T) {
	now := time.Now()
	n := fixedNormalizer(DefaultHealthyConfidence, now)

	cls := &entity.Classification{
		Method: entity.MethodModel,
		Detections: []entity.Detection{
			{ClassIndex: entity.ClassDownyMildew, Confidence: 0.5},
			{ClassIndex: entity.ClassAnthracnose, Confidence: 0.8},
			{ClassIndex: entity.ClassPowderyMildew, Confidence: 0.8},
		},
	}
	report := n.Normalize(cls, now, true)
	require.Equal(t, "Karpa (Anthracnose)", report.Disease)
	require.Equal(t, "कर्पा रोग", report.Marathi)
	require.Equal(t, 1, report.ClassID)
	require.Equal(t, entity.SeverityHigh, report.Severity)
	require.Equal(t, 80.0, report.Confidence)
	require.Equal(t, entity.MethodModel, report.Method)
	require.Len(t, report.Detections, 3)
	require.Equal(t, 4, report.Detections[0].ClassID)
}

func TestReportNormalizer_RoundsConfidence(t *testing.T) {
	now := time.Now()
	n := fixedNormalizer(DefaultHealthyConfidence, now)

	cls := &entity.Classification{
		Method:     entity.MethodModel,
		Detections: []entity.Detection{{ClassIndex: entity.ClassBorer, Confidence: 0.87654}},
	}
	report := n.Normalize(cls, now, false)
	require.Equal(t, 87.7, report.Confidence)
	require.Nil(t, report.Detections)

	cls.Detections[0].Confidence = 1.3
	require.Equal(t, 100.0, n.Normalize(cls, now, false).Confidence)
}

func TestReportNormalizer_DropsUnknownClasses(t *testing.T) {
	now := time.Now()
	n := fixedNormalizer(DefaultHealthyConfidence, now)

	cls := &entity.Classification{
		Method: entity.MethodModel,
		Detections: []entity.Detection{
			{ClassIndex: 7, Confidence: 0.99},
			{ClassIndex: entity.ClassPowderyMildew, Confidence: 0.75},
		},
	}
	report := n.Normalize(cls, now, true)
	require.Equal(t, "Bhuri (Powdery Mildew)", report.Disease)
	require.Equal(t, 75.0, report.Confidence)
	require.Len(t, report.Detections, 1)

	cls.Detections = []entity.Detection{{ClassIndex: -1, Confidence: 0.9}}
	report = n.Normalize(cls, now, true)
	require.Equal(t, "Healthy", report.Disease)
	require.Equal(t, entity.MethodModelNoDetections, report.Method)
}

func TestReportNormalizer_HeuristicKeepsMethodAndColors(t *testing.T) {
	now := time.Now()
	n := fixedNormalizer(DefaultHealthyConfidence, now)

	colors := &entity.ColorStats{Green: 0.1, Yellow: 0.05, Brown: 0.5}
	cls := &entity.Classification{
		Method:     entity.MethodColorAnalysis,
		Detections: []entity.Detection{{ClassIndex: entity.ClassAnthracnose, Confidence: 0.7}},
		Colors:     colors,
	}
	report := n.Normalize(cls, now, false)
	require.Equal(t, entity.MethodColorAnalysis, report.Method)
	require.Same(t, colors, report.Colors)
	require.Equal(t, 70.0, report.Confidence)
}

func TestReportNormalizer_ProcessingTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	n := fixedNormalizer(DefaultHealthyConfidence, now)

	report := n.Normalize(&entity.Classification{Method: entity.MethodModel}, now.Add(-1234567*time.Microsecond), false)
	require.Equal(t, 1.235, report.ProcessingTime)
	require.Equal(t, now, report.Timestamp)
}

func TestReportNormalizer_ErrorReport(t *testing.T) {
	now := time.Now()
	n := fixedNormalizer(DefaultHealthyConfidence, now)

	report := n.ErrorReport(errors.New("boom"), now)
	require.True(t, report.IsError())
	require.Equal(t, entity.MethodError, report.Method)
	require.Zero(t, report.Confidence)
	require.Zero(t, report.ClassID)
	require.Equal(t, "boom", report.Error)
	_, ok := report.Class()
	require.False(t, ok)
}
