package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pp9653/warera-ranking-sys/feature/roster/models"
)

// Artifact kinds.
const (
	KindSummaryJSON = "summary.json"
	KindSummaryText = "summary.txt"
	KindExport      = "export.json"
)

// Stem is the file name prefix shared by every artifact of a country.
func Stem(country string) string {
	return strings.ReplaceAll(models.CountryKey(country), " ", "_") + "_"
}

// FileName is <country>_<week>_<kind>.
func FileName(country, weekID, kind string) string {
	return Stem(country) + weekID + "_" + kind
}

type pruner interface {
	Prune(ctx context.Context, stem, currentWeek string) ([]string, error)
}

// Export writes the summary (JSON and text) and the export document of view
// to sink and returns the locations written.
func Export(ctx context.Context, view *models.MergedView, sink Sink, now time.Time) ([]string, error) {
	if view == nil {
		return nil, fmt.Errorf("export: nil roster")
	}
	summary := Summarize(view)
	country := view.Country.Name
	week := view.CurrentWeekID

	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	var text bytes.Buffer
	if err := WriteText(&text, summary); err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}
	doc, err := json.MarshalIndent(NewDocument(view, now), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	artifacts := []struct {
		kind string
		data []byte
	}{
		{KindSummaryJSON, summaryJSON},
		{KindSummaryText, text.Bytes()},
		{KindExport, doc},
	}
	written := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		location, err := sink.Write(ctx, FileName(country, week, a.kind), a.data)
		if err != nil {
			return written, err
		}
		written = append(written, location)
	}

	if p, ok := sink.(pruner); ok {
		if _, err := p.Prune(ctx, Stem(country), week); err != nil {
			return written, err
		}
	}
	return written, nil
}
