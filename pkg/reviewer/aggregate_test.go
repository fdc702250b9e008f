package reviewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/schema-reviewer/pkg/types"
)

func diag(file string, line int, ruleID string, severity types.Severity, msg string) *types.Diagnostic {
	return &types.Diagnostic{
		Severity: severity,
		RuleID:   ruleID,
		Category: types.CategoryNaming,
		Message:  msg,
		File:     file,
		Line:     line,
	}
}

func TestAggregateOrder(t *testing.T) {
	input := []*types.Diagnostic{
		diag("b.sql", 1, "r1", types.Severity_WARNING, "m"),
		diag("a.sql", 9, "r1", types.Severity_WARNING, "m"),
		diag("a.sql", 2, "r2", types.Severity_WARNING, "m"),
		diag("a.sql", 2, "r1", types.Severity_WARNING, "zz"),
		diag("a.sql", 2, "r1", types.Severity_WARNING, "aa"),
	}

	report := Aggregate(input)
	require.Len(t, report.Diagnostics, 5)

	var got []string
	for _, d := range report.Diagnostics {
		got = append(got, d.Location()+" "+d.RuleID+" "+d.Message)
	}
	assert.Equal(t, []string{
		"a.sql:2 r1 aa",
		"a.sql:2 r1 zz",
		"a.sql:2 r2 m",
		"a.sql:9 r1 m",
		"b.sql:1 r1 m",
	}, got)
}

func TestAggregateOrderIndependence(t *testing.T) {
	forward := []*types.Diagnostic{
		diag("a.sql", 1, "r1", types.Severity_ERROR, "first"),
		diag("a.sql", 2, "r2", types.Severity_WARNING, "second"),
		diag("b.sql", 1, "r3", types.Severity_INFO, "third"),
	}
	backward := []*types.Diagnostic{forward[2], forward[1], forward[0]}

	a := Aggregate(forward)
	b := Aggregate(backward)
	require.Equal(t, len(a.Diagnostics), len(b.Diagnostics))
	for i := range a.Diagnostics {
		assert.Equal(t, a.Diagnostics[i], b.Diagnostics[i])
	}
	assert.Equal(t, a.Summary, b.Summary)
}

func TestAggregateDedupe(t *testing.T) {
	input := []*types.Diagnostic{
		diag("a.sql", 1, "r1", types.Severity_WARNING, "same"),
		diag("a.sql", 1, "r1", types.Severity_WARNING, "same"),
		diag("a.sql", 1, "r1", types.Severity_WARNING, "different"),
	}
	report := Aggregate(input)
	assert.Len(t, report.Diagnostics, 2)
	assert.Equal(t, 2, report.Summary.Total)
}

func TestAggregateSummary(t *testing.T) {
	input := []*types.Diagnostic{
		diag("a.sql", 1, "r1", types.Severity_ERROR, "e"),
		diag("a.sql", 2, "r2", types.Severity_WARNING, "w1"),
		diag("a.sql", 3, "r2", types.Severity_WARNING, "w2"),
		diag("a.sql", 4, "r3", types.Severity_INFO, "i"),
	}
	report := Aggregate(input)

	assert.Equal(t, 4, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Errors)
	assert.Equal(t, 2, report.Summary.Warnings)
	assert.Equal(t, 1, report.Summary.Infos)
	assert.Equal(t, 4, report.Summary.ByCategory[types.CategoryNaming])
	assert.False(t, report.Passed)
	assert.True(t, report.HasErrors())
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil)
	assert.Empty(t, report.Diagnostics)
	assert.True(t, report.Passed)
	assert.True(t, report.IsClean())
	assert.Equal(t, "Review Results: 0 total (0 errors, 0 warnings, 0 infos)", report.String())
}

func TestAggregateFileStats(t *testing.T) {
	input := []*types.Diagnostic{
		diag("b.sql", 1, "r1", types.Severity_INFO, "i"),
		diag("a.sql", 1, "r1", types.Severity_ERROR, "e"),
		diag("a.sql", 2, "r2", types.Severity_WARNING, "w"),
	}
	report := Aggregate(input)

	require.Len(t, report.Files, 2)
	assert.Equal(t, "a.sql", report.Files[0].File)
	assert.Equal(t, 2, report.Files[0].Total)
	assert.Equal(t, 1, report.Files[0].Errors)
	assert.Equal(t, 1, report.Files[0].Warnings)
	assert.Equal(t, "b.sql", report.Files[1].File)
	assert.Equal(t, 1, report.Files[1].Infos)
}

func TestAggregatePassedWithWarnings(t *testing.T) {
	report := Aggregate([]*types.Diagnostic{
		diag("a.sql", 1, "r1", types.Severity_WARNING, "w"),
	})
	assert.True(t, report.Passed, "warnings alone do not fail a review")
	assert.False(t, report.IsClean())
}
