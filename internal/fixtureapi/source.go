package fixtureapi

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source resolves the raw trace payload for a run.
type Source interface {
	Trace(runID string) ([]byte, bool, error)
}

// MapSource serves payloads held in memory.
type MapSource map[string][]byte

// Trace returns the stored payload for runID.
func (m MapSource) Trace(runID string) ([]byte, bool, error) {
	payload, ok := m[runID]
	return payload, ok, nil
}

// DirSource serves <Dir>/<runID>.json files.
type DirSource struct {
	Dir string
}

// Trace reads the payload file for runID.
func (d DirSource) Trace(runID string) ([]byte, bool, error) {
	if d.Dir == "" || !safeRunID(runID) {
		return nil, false, nil
	}
	data, err := os.ReadFile(filepath.Join(d.Dir, runID+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read trace %s: %w", runID, err)
	}
	return data, true, nil
}

// Sources tries each source in order and returns the first hit.
type Sources []Source

// Trace consults each source until one has the run.
func (s Sources) Trace(runID string) ([]byte, bool, error) {
	for _, source := range s {
		if source == nil {
			continue
		}
		payload, found, err := source.Trace(runID)
		if err != nil || found {
			return payload, found, err
		}
	}
	return nil, false, nil
}

func safeRunID(runID string) bool {
	if runID == "" || runID == "." || runID == ".." {
		return false
	}
	return !strings.ContainsAny(runID, `/\`)
}
