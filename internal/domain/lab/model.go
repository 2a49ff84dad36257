package lab

import (
	"time"

	"github.com/google/uuid"
)

// LabStatus is the classification of a reading against its reference range.
type LabStatus string

const (
	StatusLow    LabStatus = "LOW"
	StatusNormal LabStatus = "NORMAL"
	StatusHigh   LabStatus = "HIGH"
)

// Trend is the direction of a marker over time.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

const defaultTestType = "LAB"

type LabTest struct {
	ID       uuid.UUID `json:"id"`
	ClientID uuid.UUID `json:"-"`
	TakenAt  time.Time `json:"takenAt"`
	Type     string    `json:"type"`
	Marker   string    `json:"marker"`
	Value    float64   `json:"value"`
	Unit     string    `json:"unit"`
	Status   LabStatus `json:"status"`
}

func (t *LabTest) Reading() LabReading {
	return LabReading{MarkerCode: t.Marker, Value: t.Value, TakenAt: t.TakenAt}
}

// MarkerRef is the catalog entry for a canonical marker code.
type MarkerRef struct {
	Code    string   `json:"code" yaml:"code"`
	Name    string   `json:"name" yaml:"name"`
	Unit    string   `json:"unit" yaml:"unit"`
	Low     *float64 `json:"low,omitempty" yaml:"low"`
	High    *float64 `json:"high,omitempty" yaml:"high"`
	Comment *string  `json:"comment,omitempty" yaml:"comment"`
}

func (m *MarkerRef) Range() ReferenceRange {
	if m == nil {
		return ReferenceRange{}
	}
	return ReferenceRange{Low: m.Low, High: m.High}
}

// BatchItem is one entry of a batch upload. Value is a pointer so that a
// missing value can be told apart from zero.
type BatchItem struct {
	MarkerCode string   `json:"markerCode"`
	Value      *float64 `json:"value"`
	Unit       string   `json:"unit,omitempty"`
	TakenAt    string   `json:"takenAt,omitempty"`
	Type       string   `json:"type,omitempty"`
}

type BatchRequest struct {
	Items []BatchItem `json:"items"`
}

type MarkerInfo struct {
	Marker string  `json:"marker"`
	Name   *string `json:"name,omitempty"`
	Unit   *string `json:"unit,omitempty"`
}

type SeriesPoint struct {
	TakenAt time.Time `json:"takenAt"`
	Value   float64   `json:"value"`
	Status  LabStatus `json:"status"`
}

type MarkerSummary struct {
	Marker      string    `json:"marker"`
	Name        *string   `json:"name,omitempty"`
	LastValue   float64   `json:"lastValue"`
	Unit        string    `json:"unit"`
	Status      LabStatus `json:"status"`
	LastTakenAt time.Time `json:"lastTakenAt"`
	Trend       Trend     `json:"trend"`
	Delta       *float64  `json:"delta,omitempty"`
}

// LabReport is the metadata of an uploaded lab document.
type LabReport struct {
	ID          uuid.UUID `json:"id"`
	ClientID    uuid.UUID `json:"clientId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	BlobKey     string    `json:"-"`
	UploadedBy  uuid.UUID `json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}
