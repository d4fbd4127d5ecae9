package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPeriod(t *testing.T) {
	t.Parallel()

	valid := []string{"2025-01", "2025-11", "1999-12"}
	for _, s := range valid {
		assert.True(t, IsValidPeriod(s), "%s should be valid", s)
	}

	invalid := []string{"", "2025-13", "2025-00", "2025-1", "25-11", "2025/11", "November 2025", "2025-11-01"}
	for _, s := range invalid {
		assert.False(t, IsValidPeriod(s), "%s should be invalid", s)
	}
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	parsed, ok := ParsePeriod("2025-11")
	require.True(t, ok)
	assert.Equal(t, 2025, parsed.Year())
	assert.Equal(t, 11, int(parsed.Month()))
	assert.Equal(t, 1, parsed.Day())

	_, ok = ParsePeriod("2025-13")
	assert.False(t, ok)
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	errs := ValidationErrors{
		{Field: "period", Message: "is required"},
		{Field: "decision", Message: "must be 'approved' or 'rejected'"},
	}

	assert.Equal(t, "period: is required; decision: must be 'approved' or 'rejected'", errs.Error())
	assert.Equal(t, map[string]string{
		"period":   "is required",
		"decision": "must be 'approved' or 'rejected'",
	}, errs.ToMap())
}
