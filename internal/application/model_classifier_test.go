package app

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"grapeguard/internal/domain/entity"
)

func TestModelClassifier_DropsNonFiniteScores(t *testing.T) {
	seg := &fakeSegmenter{detections: []entity.Detection{
		{ClassIndex: entity.ClassAnthracnose, Confidence: math.NaN()},
		{ClassIndex: entity.ClassAnthracnose, Confidence: math.Inf(1)},
		{ClassIndex: entity.ClassDownyMildew, Confidence: 0.8},
	}}

	cls, err := NewModelClassifier(seg, 0.7).Classify(context.Background(), uniformImage(leafGreen, 8, 8))
	require.NoError(t, err)
	require.Equal(t, entity.MethodModel, cls.Method)
	require.Len(t, cls.Detections, 1)
	require.Equal(t, entity.ClassDownyMildew, cls.Detections[0].ClassIndex)
}

func TestModelClassifier_OnlyNaNMeansNoDetections(t *testing.T) {
	seg := &fakeSegmenter{detections: []entity.Detection{{ClassIndex: entity.ClassAnthracnose, Confidence: math.NaN()}}}

	cls, err := NewModelClassifier(seg, 0.7).Classify(context.Background(), uniformImage(leafGreen, 8, 8))
	require.NoError(t, err)
	require.Equal(t, entity.MethodModelNoDetections, cls.Method)
	require.Empty(t, cls.Detections)
}
