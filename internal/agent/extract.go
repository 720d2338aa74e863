package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

// chartBlockPattern matches a fenced code block labeled chart or json-chart.
var chartBlockPattern = regexp.MustCompile("(?s)```(?:chart|json-chart)\\s*\n(.*?)```")

// tryParseChart extracts and parses a fenced chart block from the answer
// text. Returns nil when no block is present or the payload is not valid
// JSON; extraction is best-effort and never fails.
func tryParseChart(content string) ChartData {
	match := chartBlockPattern.FindStringSubmatch(content)
	if match == nil {
		return nil
	}

	var data ChartData
	if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &data); err != nil {
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

// tryParseTable extracts the first markdown table from the answer text.
// Returns nil when no well-formed table is present; never fails.
func tryParseTable(content string) *TableData {
	lines := strings.Split(content, "\n")

	for i := 0; i+1 < len(lines); i++ {
		if !isTableRow(lines[i]) || !isSeparatorRow(lines[i+1]) {
			continue
		}

		table := &TableData{Headers: splitTableRow(lines[i])}
		for j := i + 2; j < len(lines) && isTableRow(lines[j]); j++ {
			row := splitTableRow(lines[j])
			// Pad or trim to header width so rows stay rectangular.
			for len(row) < len(table.Headers) {
				row = append(row, "")
			}
			table.Rows = append(table.Rows, row[:len(table.Headers)])
		}
		if len(table.Rows) == 0 {
			return nil
		}
		return table
	}
	return nil
}

func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") && strings.Count(trimmed, "|") >= 2
}

var separatorPattern = regexp.MustCompile(`^\|?[\s:|-]+\|?$`)

func isSeparatorRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.Contains(trimmed, "-") && separatorPattern.MatchString(trimmed)
}

func splitTableRow(line string) []string {
	trimmed := strings.Trim(strings.TrimSpace(line), "|")
	cells := strings.Split(trimmed, "|")
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
