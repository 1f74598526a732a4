package riskcase

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SaveCorpus writes a corpus of case records as an indented JSON array.
// Reading the file back with LoadCorpus reproduces equal records.
func SaveCorpus(path string, cases []CaseRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create corpus directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write corpus %s: %w", path, err)
	}
	return nil
}

// LoadCorpus reads a JSON corpus written by SaveCorpus (or produced by any
// upstream with the same document shape).
func LoadCorpus(path string) ([]CaseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	var cases []CaseRecord
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return cases, nil
}

// WriteCSVProjection writes the flattened tabular view of a corpus: one row
// per case with the feature columns, the rounded rule score, and the label.
// It is derived mechanically from the feature vector and exists only for
// inspection; training always reads the JSON document.
func WriteCSVProjection(path string, cases []CaseRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := make([]string, 0, NumFeatures+2)
	header = append(header, FeatureNames[:]...)
	header = append(header, "risk_score", "adverse_event")
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, NumFeatures+2)
	for _, c := range cases {
		features := Derive(c)
		for i, v := range features {
			row[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		row[NumFeatures] = strconv.FormatFloat(c.RiskScore, 'f', 1, 64)
		row[NumFeatures+1] = strconv.Itoa(c.AdverseEventOccurred)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv %s: %w", path, err)
	}
	return nil
}
