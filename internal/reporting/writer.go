package reporting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fixed-income-lab/internal/domain"
)

// Report file names
const (
	SummaryAllFile = "summary_all_scenarios.csv"
	ReportFile     = "report.md"
)

// ErrFileCollision is returned when two distinct outputs map to one file name.
var ErrFileCollision = errors.New("output file name collision")

// WriteAll writes the combined summary CSV, one summary CSV per scenario, the
// markdown report and, for rows carrying a series, one series CSV per run.
// Returns the written paths in write order. Ids that differ only in
// characters safeName rewrites (or in case) fail with ErrFileCollision
// before any file is written.
func WriteAll(dir string, table *domain.ResultTable, report *Report) ([]string, error) {
	files := []outputFile{{SummaryAllFile, "all scenarios", RenderSummaryCSV(table.Summaries())}}

	for _, scenarioID := range table.ScenarioIDs() {
		rows := table.ForScenario(scenarioID)
		summaries := make([]domain.TerminalSummary, len(rows))
		for i, r := range rows {
			summaries[i] = r.Summary
		}
		files = append(files, outputFile{ScenarioFile(scenarioID), "scenario " + scenarioID, RenderSummaryCSV(summaries)})
	}

	for _, row := range table.Rows {
		if len(row.Series) == 0 {
			continue
		}
		s := row.Summary
		files = append(files, outputFile{
			SeriesFile(s.ScenarioID, s.InstrumentID),
			"series " + s.ScenarioID + "/" + s.InstrumentID,
			RenderSeriesCSV(row.Series),
		})
	}

	if report != nil {
		files = append(files, outputFile{ReportFile, "report", RenderMarkdown(report)})
	}

	owners := make(map[string]string, len(files)) // lower-cased name -> owner
	for _, f := range files {
		key := strings.ToLower(f.name)
		if prev, taken := owners[key]; taken {
			return nil, fmt.Errorf("%w: %s holds both %s and %s", ErrFileCollision, f.name, prev, f.owner)
		}
		owners[key] = f.owner
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", f.name, err)
		}
		written = append(written, path)
	}

	return written, nil
}

type outputFile struct {
	name    string
	owner   string // what the file holds, for collision errors
	content string
}

// ScenarioFile returns the per-scenario summary file name.
func ScenarioFile(scenarioID string) string {
	return fmt.Sprintf("summary_%s.csv", safeName(scenarioID))
}

// SeriesFile returns the series file name of a run.
func SeriesFile(scenarioID, instrumentID string) string {
	return fmt.Sprintf("series_%s_%s.csv", safeName(scenarioID), strings.ToLower(safeName(instrumentID)))
}

// safeName keeps ids usable as file names.
func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
