package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/tagmig/migrate"
	"github.com/gnolang/tagmig/rewrite"
)

func init() {
	color.NoColor = true
}

func sampleResults() []migrate.FileResult {
	return []migrate.FileResult{
		{
			Path:    "a.jsp",
			OutPath: "out/a.jsp",
			Changed: true,
			Written: true,
			Result: &rewrite.Result{Outcomes: []rewrite.Outcome{
				{Rule: "html/submit", Status: rewrite.StatusApplied, Replacements: 2},
			}},
		},
		{
			Path: "b.jsp",
			Result: &rewrite.Result{Outcomes: []rewrite.Outcome{
				{
					Rule:    "bean/broken",
					Pattern: `(`,
					Status:  rewrite.StatusErrored,
					Err:     errors.New("missing closing )"),
				},
			}},
		},
		{Path: "c.jsp", Cached: true},
		{Path: "d.jsp", Err: errors.New("permission denied")},
	}
}

func TestFormatFile(t *testing.T) {
	t.Parallel()
	results := sampleResults()

	tests := []struct {
		name string
		fr   migrate.FileResult
		want string
	}{
		{
			name: "converted",
			fr:   results[0],
			want: "a.jsp: converted (2 replacements) -> out/a.jsp\n",
		},
		{
			name: "rule error",
			fr:   results[1],
			want: "b.jsp: unchanged (0 replacements)\n" +
				"error: bean/broken\n" +
				"  --> (\n" +
				"   | missing closing )\n",
		},
		{
			name: "cached",
			fr:   results[2],
			want: "c.jsp: cached\n",
		},
		{
			name: "failed",
			fr:   results[3],
			want: "d.jsp: failed\nerror: permission denied\n",
		},
		{
			name: "dry run",
			fr:   migrate.FileResult{Path: "e.jsp", Changed: true, Result: &rewrite.Result{}},
			want: "e.jsp: would convert (0 replacements)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatFile(tt.fr))
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Totals{
		Files:        4,
		Changed:      1,
		Written:      1,
		Cached:       1,
		Failed:       1,
		Replacements: 2,
		RuleErrors:   1,
	}, Summarize(sampleResults()))
}

func TestText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleResults()))
	assert.Contains(t, buf.String(), "4 files, 1 changed, 1 cached, 1 failed, 2 replacements, 1 rule errors\n")
}

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleResults()))

	var decoded struct {
		Files []struct {
			Path  string `json:"path"`
			Error string `json:"error"`
		} `json:"files"`
		Totals Totals `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Files, 4)
	assert.Equal(t, "d.jsp", decoded.Files[3].Path)
	assert.Equal(t, "permission denied", decoded.Files[3].Error)
	assert.Equal(t, 2, decoded.Totals.Replacements)
}

func TestJSONEmpty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, nil))
	assert.Contains(t, buf.String(), `"files": []`)
}
