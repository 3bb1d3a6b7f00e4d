// Package codereview bundles the built-in code review workflow: a five-step
// graph that extracts functions from raw code text, scores complexity,
// detects smells through a tool step, suggests improvements and loops the
// suggest/evaluate pair until the quality score clears the threshold.
package codereview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cast"

	"github.com/flowforge/flowforge/types"
)

// GraphName is the template identifier the API layer accepts.
const GraphName = "code_review_agent"

const defaultThreshold = 0.8

// RegisterSteps installs the workflow's computations and its tool into the
// engine. Registration overwrites, so callers may replace any of them.
func RegisterSteps(e types.Engine) {
	e.RegisterComputation("extract_functions", extractFunctions)
	e.RegisterComputation("check_complexity", checkComplexity)
	e.RegisterTool("detect_smells", detectSmells)
	e.RegisterComputation("suggest_improvements", suggestImprovements)
	e.RegisterComputation("evaluate_quality", evaluateQuality)
}

// TemplateGraph builds the workflow graph. The quality loop is a back-edge:
// evaluate_quality returns to suggest_improvements while meets_quality is
// false and exits when it turns true.
func TemplateGraph(name string) (*types.Graph, error) {
	if name == "" {
		name = GraphName
	}

	nodes := []types.Node{
		{
			Name:        "extract_functions",
			Kind:        types.KindComputation,
			Description: "Extract functions from raw code text.",
		},
		{
			Name:        "check_complexity",
			Kind:        types.KindComputation,
			Description: "Estimate complexity per function.",
		},
		{
			Name:        "detect_smells",
			Kind:        types.KindTool,
			Tool:        "detect_smells",
			Description: "Tool node: detect simple static code smells.",
		},
		{
			Name:        "suggest_improvements",
			Kind:        types.KindComputation,
			Description: "Suggest improvements and simulate auto-refactor.",
		},
		{
			Name:        "evaluate_quality",
			Kind:        types.KindComputation,
			Description: "Evaluate whether quality_score meets threshold.",
		},
	}

	edges := []types.Edge{
		{Source: "extract_functions", Target: "check_complexity"},
		{Source: "check_complexity", Target: "detect_smells"},
		{Source: "detect_smells", Target: "suggest_improvements"},
		{Source: "suggest_improvements", Target: "evaluate_quality"},
		// loop edge: not good enough yet, take another improvement pass
		{
			Source:    "evaluate_quality",
			Target:    "suggest_improvements",
			Condition: &types.Condition{Key: "meets_quality", Op: types.OpEq, Value: false},
		},
		{
			Source:    "evaluate_quality",
			Target:    types.EndTarget,
			Condition: &types.Condition{Key: "meets_quality", Op: types.OpEq, Value: true},
		},
	}

	g, err := types.NewGraph(name, nodes, edges, "extract_functions")
	return g, errors.Trace(err)
}

func codeOf(state types.State) string {
	code, _ := state.GetString("code")
	return code
}

// metricsOf returns the nested metrics mapping, creating it when absent.
func metricsOf(state types.State) map[string]any {
	if m, ok := state["metrics"].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	state.Set("metrics", m)
	return m
}

/**
 * extractFunctions is a very lightweight extractor: lines that declare a
 * function are collected into state["functions"] as {name, line} records.
 */
func extractFunctions(ctx types.Context, state types.State) (types.State, error) {
	code := codeOf(state)
	functions := make([]any, 0)

	for _, line := range strings.Split(code, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "def ") && strings.Contains(stripped, "(") && strings.Contains(stripped, ":") {
			namePart := strings.SplitN(stripped, "def ", 2)[1]
			name := strings.TrimSpace(strings.SplitN(namePart, "(", 2)[0])
			functions = append(functions, map[string]any{
				"name": name,
				"line": line,
			})
		}
	}

	state.Set("functions", functions)
	return state, nil
}

/**
 * checkComplexity counts `for`, `while` and `if` tokens as a stand-in for
 * cyclomatic complexity, then derives a baseline quality score in [0,1]:
 * lower average complexity means a higher starting quality.
 */
func checkComplexity(ctx types.Context, state types.State) (types.State, error) {
	code := codeOf(state)
	lines := strings.Split(code, "\n")

	functions, _ := state.Get("functions")
	report := map[string]any{}

	for _, fn := range toSlice(functions) {
		name, ok := toMap(fn)["name"].(string)
		if !ok {
			continue
		}
		score := 1
		for _, line := range lines {
			// crude signal for complexity
			for _, token := range strings.Fields(strings.TrimSpace(line)) {
				switch token {
				case "for", "while", "if":
					score++
				}
			}
		}
		report[name] = map[string]any{"complexity_score": score}
	}

	state.Set("complexity_report", report)

	avgComplexity := 0.0
	if len(report) > 0 {
		total := 0.0
		for _, v := range report {
			total += cast.ToFloat64(toMap(v)["complexity_score"])
		}
		avgComplexity = total / float64(len(report))
	}

	// clamp complexity to a reasonable range then invert
	normalized := avgComplexity / 20.0
	if normalized > 1.0 {
		normalized = 1.0
	}
	quality := 1.0 - normalized
	if quality < 0 {
		quality = 0
	}

	metricsOf(state)["quality_score"] = quality
	return state, nil
}

/**
 * detectSmells is the workflow's tool step: simple static smell detection
 * over the raw code text (long lines, leftover TODO markers, deep nesting).
 */
func detectSmells(ctx types.Context, state types.State) (types.State, error) {
	code := codeOf(state)
	issues := make([]any, 0)

	deepIndent := strings.Repeat("        ", 3)
	for idx, line := range strings.Split(code, "\n") {
		stripped := strings.TrimSpace(line)
		if len(line) > 80 {
			issues = append(issues, fmt.Sprintf("Line %d: line longer than 80 characters", idx+1))
		}
		if strings.Contains(line, "TODO") {
			issues = append(issues, fmt.Sprintf("Line %d: TODO comment present", idx+1))
		}
		if strings.HasPrefix(stripped, "if ") && strings.HasPrefix(line, deepIndent) {
			issues = append(issues, fmt.Sprintf("Line %d: deeply nested if-statement", idx+1))
		}
	}

	state.Set("issues", issues)
	return state, nil
}

/**
 * suggestImprovements turns the complexity report and detected issues into
 * rule-based suggestions, and simulates an auto-refactor pass by bumping the
 * quality score a little for every pass through the loop.
 */
func suggestImprovements(ctx types.Context, state types.State) (types.State, error) {
	suggestions := make([]string, 0)

	report := toMap(mustGet(state, "complexity_report"))
	names := make([]string, 0, len(report))
	for name := range report {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		score := cast.ToFloat64(toMap(report[name])["complexity_score"])
		switch {
		case score > 15:
			suggestions = append(suggestions, fmt.Sprintf(
				"Function '%s' has high complexity (%d). Consider splitting into smaller helper functions.",
				name, int(score)))
		case score > 8:
			suggestions = append(suggestions, fmt.Sprintf(
				"Function '%s' is moderately complex (%d). Try reducing nested conditionals.",
				name, int(score)))
		}
	}

	for _, raw := range toSlice(mustGet(state, "issues")) {
		issue, _ := raw.(string)
		if strings.Contains(issue, "80 characters") {
			suggestions = append(suggestions,
				"Some lines are longer than 80 characters. Consider wrapping or extracting variables to improve readability.")
		}
		if strings.Contains(issue, "TODO") {
			suggestions = append(suggestions,
				"Remove or resolve TODO comments before merging this code.")
		}
		if strings.Contains(issue, "deeply nested") {
			suggestions = append(suggestions,
				"Deeply nested conditionals detected. Refactor using guard clauses or early returns.")
		}
	}

	deduped := dedupe(suggestions)
	state.Set("suggestions", deduped)

	// each pass improves quality a bit
	metrics := metricsOf(state)
	quality := cast.ToFloat64(metrics["quality_score"])
	bump := 0.05 * float64(maxInt(1, len(deduped)))
	quality += bump
	if quality > 1.0 {
		quality = 1.0
	}
	metrics["quality_score"] = quality

	return state, nil
}

/**
 * evaluateQuality sets the meets_quality flag the loop edges branch on.
 */
func evaluateQuality(ctx types.Context, state types.State) (types.State, error) {
	metrics := metricsOf(state)
	quality := cast.ToFloat64(metrics["quality_score"])

	threshold := defaultThreshold
	if raw, exists := state.Get("threshold"); exists {
		threshold = cast.ToFloat64(raw)
	}

	state.Set("meets_quality", quality >= threshold)
	return state, nil
}

func mustGet(state types.State, key string) any {
	v, _ := state.Get(key)
	return v
}

func toSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func toMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func dedupe(in []string) []any {
	seen := make(map[string]bool, len(in))
	out := make([]any, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
