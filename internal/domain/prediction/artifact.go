package prediction

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Artifact is the persisted model: the fitted forest plus everything needed
// to report on it without retraining. One file, overwritten on each run.
type Artifact struct {
	Version           string
	VersionSeq        int
	Forest            *Forest
	FeatureImportance map[string]float64
	Metrics           Metrics
	TrainedAt         time.Time
}

// SaveArtifact gob-encodes the artifact to path, creating parent directories
// as needed. The write goes through a temp file and rename so a crash cannot
// leave a truncated artifact behind.
func SaveArtifact(path string, a *Artifact) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &PersistenceError{Op: "write", Path: path, Err: err}
		}
	}

	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(a); err != nil {
		tmp.Close()
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// LoadArtifact reads a gob artifact written by SaveArtifact.
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Path: path, Err: err}
	}
	defer f.Close()

	var a Artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, &PersistenceError{Op: "read", Path: path, Err: err}
	}
	if a.Forest == nil || len(a.Forest.Trees) == 0 {
		return nil, &PersistenceError{Op: "read", Path: path,
			Err: fmt.Errorf("artifact has no fitted model")}
	}
	return &a, nil
}
