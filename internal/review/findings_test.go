package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFindingsBareArray(t *testing.T) {
	findings, err := ParseFindings(`["Line 3: hardcoded token", "Line 9: missing validation"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Line 3: hardcoded token", "Line 9: missing validation"}, findings)
}

func TestParseFindingsEmptyArray(t *testing.T) {
	findings, err := ParseFindings(`[]`)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestParseFindingsFindingsKey(t *testing.T) {
	findings, err := ParseFindings(`{"findings": ["N+1 query in loop"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"N+1 query in loop"}, findings)
}

func TestParseFindingsOtherArrayKey(t *testing.T) {
	findings, err := ParseFindings(`{"issues": ["duplicated parser logic"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"duplicated parser logic"}, findings)
}

func TestParseFindingsCodeFence(t *testing.T) {
	raw := "```json\n[\"Line 1: SQL concatenation\"]\n```"
	findings, err := ParseFindings(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Line 1: SQL concatenation"}, findings)
}

func TestParseFindingsObjectWithoutArray(t *testing.T) {
	findings, err := ParseFindings(`{"verdict": "looks fine"}`)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestParseFindingsNonStringItems(t *testing.T) {
	findings, err := ParseFindings(`[42, "real finding"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"42", "real finding"}, findings)
}

func TestParseFindingsInvalidJSON(t *testing.T) {
	_, err := ParseFindings("the diff looks good to me")
	assert.Error(t, err)
}

func TestParseFindingsEmptyResponse(t *testing.T) {
	_, err := ParseFindings("   ")
	assert.Error(t, err)
}
