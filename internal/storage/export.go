package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/neurosim/internal/metrics"
)

type ExportData struct {
	RunMetadata
	Steps      int                  `json:"steps"`
	Iterations []int                `json:"iterations"`
	Times      []float64            `json:"times"`
	Series     map[string][]float64 `json:"series"`
}

// ExportJSON writes a run record and its full series as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, series *metrics.Series) error {
	data := ExportData{RunMetadata: meta}
	if series != nil {
		data.Steps = series.Len()
		data.Iterations = series.Iterations
		data.Times = series.Times
		data.Series = series.Values
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
