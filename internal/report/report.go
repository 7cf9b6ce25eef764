package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/gnolang/tagmig/migrate"
	"github.com/gnolang/tagmig/rewrite"
)

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	ruleStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
	okStyle      = color.New(color.FgGreen, color.Bold)
)

// FormatFile renders one file's outcome followed by its failed rules.
func FormatFile(fr migrate.FileResult) string {
	var builder strings.Builder
	builder.WriteString(formatFileHeader(fr))

	if fr.Err != nil {
		builder.WriteString(errorStyle.Sprint("error: "))
		builder.WriteString(messageStyle.Sprintf("%v\n", fr.Err))
		return builder.String()
	}

	if fr.Result != nil {
		for _, o := range fr.Result.Errored() {
			builder.WriteString(formatRuleError(o))
		}
	}
	return builder.String()
}

func formatFileHeader(fr migrate.FileResult) string {
	status := "unchanged"
	switch {
	case fr.Err != nil:
		status = "failed"
	case fr.Cached:
		status = "cached"
	case fr.Changed && fr.Written:
		status = "converted"
	case fr.Changed:
		status = "would convert"
	}

	header := fileStyle.Sprint(fr.Path) + lineStyle.Sprint(": ") + statusStyle(fr).Sprint(status)
	if fr.Result != nil && fr.Err == nil {
		header += fmt.Sprintf(" (%d replacements)", fr.Result.Replacements())
	}
	if fr.Written && fr.OutPath != "" && fr.OutPath != fr.Path {
		header += lineStyle.Sprint(" -> ") + fileStyle.Sprint(fr.OutPath)
	}
	return header + "\n"
}

func statusStyle(fr migrate.FileResult) *color.Color {
	if fr.Failed() {
		return errorStyle
	}
	return okStyle
}

func formatRuleError(o rewrite.Outcome) string {
	var result strings.Builder
	result.WriteString(errorStyle.Sprint("error: ") + ruleStyle.Sprint(o.Rule) + "\n")
	result.WriteString(lineStyle.Sprint("  --> ") + o.Pattern + "\n")
	result.WriteString(lineStyle.Sprint("   | "))
	result.WriteString(messageStyle.Sprintf("%v\n", o.Err))
	return result.String()
}

// Totals summarises a batch.
type Totals struct {
	Files        int `json:"files"`
	Changed      int `json:"changed"`
	Written      int `json:"written"`
	Cached       int `json:"cached"`
	Failed       int `json:"failed"`
	Replacements int `json:"replacements"`
	RuleErrors   int `json:"rule_errors"`
}

// Summarize counts the outcomes in results.
func Summarize(results []migrate.FileResult) Totals {
	var t Totals
	for _, fr := range results {
		t.Files++
		if fr.Changed {
			t.Changed++
		}
		if fr.Written {
			t.Written++
		}
		if fr.Cached {
			t.Cached++
		}
		if fr.Err != nil {
			t.Failed++
		}
		if fr.Result != nil {
			t.Replacements += fr.Result.Replacements()
			t.RuleErrors += len(fr.Result.Errored())
		}
	}
	return t
}

// Text writes every file block then a one-line summary.
func Text(w io.Writer, results []migrate.FileResult) error {
	for _, fr := range results {
		if _, err := io.WriteString(w, FormatFile(fr)); err != nil {
			return err
		}
	}

	t := Summarize(results)
	style := okStyle
	if t.Failed > 0 || t.RuleErrors > 0 {
		style = errorStyle
	}
	_, err := style.Fprintf(w,
		"%d files, %d changed, %d cached, %d failed, %d replacements, %d rule errors\n",
		t.Files, t.Changed, t.Cached, t.Failed, t.Replacements, t.RuleErrors)
	return err
}

type jsonReport struct {
	Files  []migrate.FileResult `json:"files"`
	Totals Totals               `json:"totals"`
}

// JSON writes the batch as an indented JSON document.
func JSON(w io.Writer, results []migrate.FileResult) error {
	if results == nil {
		results = []migrate.FileResult{}
	}
	data, err := json.MarshalIndent(jsonReport{Files: results, Totals: Summarize(results)}, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
