package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pp9653/warera-ranking-sys/feature/roster/models"
)

// ErrInvalidDocument is returned when an export document cannot be imported.
var ErrInvalidDocument = errors.New("invalid export document")

// Document is the portable export of a cached roster.
type Document struct {
	Country         string                       `json:"country"`
	ExportTimestamp time.Time                    `json:"export_timestamp"`
	WeekID          string                       `json:"week_id"`
	CountryInfo     models.Country               `json:"country_info"`
	Players         []models.RosterPlayer        `json:"players"`
	Assignments     map[string]string            `json:"assignments"`
	MedalHistory    map[string]map[string]string `json:"medal_history"`
	Totals          models.Totals                `json:"totals"`
}

// NewDocument builds the export document of view.
func NewDocument(view *models.MergedView, now time.Time) Document {
	return Document{
		Country:         view.Country.Name,
		ExportTimestamp: now.UTC(),
		WeekID:          view.CurrentWeekID,
		CountryInfo:     view.Country,
		Players:         view.Players,
		Assignments:     view.Assignments,
		MedalHistory:    view.MedalHistory,
		Totals:          view.Totals,
	}
}

// View converts the document back into a merged view for import.
func (d *Document) View() *models.MergedView {
	country := d.CountryInfo
	if country.Name == "" {
		country.Name = d.Country
	}
	return &models.MergedView{
		Country:       country,
		Players:       d.Players,
		Assignments:   d.Assignments,
		MedalHistory:  d.MedalHistory,
		Totals:        d.Totals,
		CurrentWeekID: d.WeekID,
		LastUpdated:   d.ExportTimestamp,
	}
}

// ReadDocument decodes an export document.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Country == "" {
		return nil, fmt.Errorf("%w: missing country", ErrInvalidDocument)
	}
	for i, p := range doc.Players {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: player %d has no id", ErrInvalidDocument, i)
		}
	}
	return &doc, nil
}
