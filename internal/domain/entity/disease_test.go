package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassTable_IndexToIDRoundTrip(t *testing.T) {
	for index := 0; index < ClassCount; index++ {
		byIndex, err := ClassByIndex(index)
		require.NoError(t, err)
		require.Equal(t, index, byIndex.Index)
		require.Equal(t, index+1, byIndex.ID)
		require.Equal(t, byIndex.ID, IndexToID(index))

		byID, err := ClassByID(byIndex.ID)
		require.NoError(t, err)
		require.Equal(t, byIndex.Name, byID.Name)
		require.Equal(t, byIndex.Marathi, byID.Marathi)
		require.Equal(t, byIndex.Severity, byID.Severity)
	}
}

func TestClassTable_FixedEntries(t *testing.T) {
	cases := []struct {
		id       int
		name     string
		severity Severity
	}{
		{1, "Karpa (Anthracnose)", SeverityHigh},
		{2, "Bhuri (Powdery Mildew)", SeverityMedium},
		{3, "Bokadlela (Borer Infestation)", SeverityHigh},
		{4, "Davnya (Downy Mildew)", SeverityHigh},
		{5, "Healthy", SeverityNone},
	}
	for _, tc := range cases {
		c, err := ClassByID(tc.id)
		require.NoError(t, err)
		require.Equal(t, tc.name, c.Name)
		require.Equal(t, tc.severity, c.Severity)
		require.NotEmpty(t, c.Marathi)
	}
}

func TestClassTable_OutOfRange(t *testing.T) {
	_, err := ClassByIndex(-1)
	require.Error(t, err)
	_, err = ClassByIndex(ClassCount)
	require.Error(t, err)
	_, err = ClassByID(0)
	require.Error(t, err)
	_, err = ClassByID(6)
	require.Error(t, err)
}

func TestClassTable_CopiesAreIsolated(t *testing.T) {
	c := HealthyClass()
	c.Recommendations[0] = "changed"
	c.Name = "changed"

	again := HealthyClass()
	require.Equal(t, "Healthy", again.Name)
	require.NotEqual(t, "changed", again.Recommendations[0])
	require.Len(t, Classes(), ClassCount)
	require.Equal(t, "Healthy", ClassNames()[ClassHealthy])
}
