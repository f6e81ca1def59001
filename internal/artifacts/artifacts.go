// Package artifacts writes decode results to disk: one directory per
// genome plus an index of everything written under a base directory.
package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"morphogen/internal/decode"
	"morphogen/internal/params"
	"morphogen/internal/render"
)

const indexFile = "decode_index.json"

// Files that may appear in an artifact directory. Only params.json and
// result.json are always written.
const (
	ParamsFile     = "params.json"
	ResultFile     = "result.json"
	NetworkSVGFile = "network.svg"
	CellsSVGFile   = "cells.svg"
	MatrixFile     = "matrix.txt"
)

var artifactFiles = []string{ParamsFile, ResultFile, NetworkSVGFile, CellsSVGFile, MatrixFile}

type DecodeArtifacts struct {
	Params params.Params
	Result *decode.Result
}

type IndexEntry struct {
	GenomeID     string  `json:"genome_id"`
	BatchID      string  `json:"batch_id,omitempty"`
	Encoding     string  `json:"encoding"`
	OK           bool    `json:"ok"`
	Reason       string  `json:"reason,omitempty"`
	Connections  int     `json:"connections"`
	PConn        float64 `json:"p_conn,omitempty"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// WriteDecodeArtifacts writes one genome's decode into baseDir/<genome id>
// and returns that directory.
func WriteDecodeArtifacts(baseDir string, a DecodeArtifacts) (string, error) {
	if a.Result == nil || a.Result.GenomeID == "" {
		return "", fmt.Errorf("genome id is required")
	}
	res := a.Result

	dir := filepath.Join(baseDir, res.GenomeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(dir, ParamsFile), a.Params); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, ResultFile), res); err != nil {
		return "", err
	}
	if res.Network != nil {
		if err := writeWith(filepath.Join(dir, NetworkSVGFile), func(w io.Writer) error {
			return render.Network(w, res.Network)
		}); err != nil {
			return "", err
		}
	}
	if len(res.Geometry) > 0 {
		if err := writeWith(filepath.Join(dir, CellsSVGFile), func(w io.Writer) error {
			return render.Cells(w, render.FrameFor(a.Params), res.Geometry)
		}); err != nil {
			return "", err
		}
	}
	if res.Matrix != nil {
		if err := writeWith(filepath.Join(dir, MatrixFile), func(w io.Writer) error {
			return render.Matrix(w, *res.Matrix)
		}); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// EntryFor summarises a decode result for the index.
func EntryFor(res *decode.Result, batchID, createdAtUTC string) IndexEntry {
	entry := IndexEntry{
		GenomeID:     res.GenomeID,
		BatchID:      batchID,
		Encoding:     string(res.Encoding),
		OK:           res.OK(),
		PConn:        res.Diagnostics[decode.DiagPConn],
		CreatedAtUTC: createdAtUTC,
	}
	if res.Network != nil {
		entry.Connections = len(res.Network.Edges)
	}
	if res.Failure != nil {
		entry.Reason = res.Failure.Reason
	}
	return entry
}

// AppendIndex adds entry to the index of baseDir, replacing an entry for
// the same genome.
func AppendIndex(baseDir string, entry IndexEntry) error {
	if entry.GenomeID == "" {
		return fmt.Errorf("genome id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].GenomeID == entry.GenomeID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, indexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, indexFile), index)
}

// ListIndex returns the index newest first.
func ListIndex(baseDir string) ([]IndexEntry, error) {
	entries, err := readIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry IndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Later appends first on equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]IndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func readIndex(baseDir string) ([]IndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []IndexEntry{}, nil
		}
		return nil, err
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportArtifacts copies the artifact directory of genomeID to
// outDir/<genome id>. Optional files are copied when present.
func ExportArtifacts(baseDir, genomeID, outDir string) (string, error) {
	if genomeID == "" {
		return "", fmt.Errorf("genome id is required")
	}

	src := filepath.Join(baseDir, genomeID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, genomeID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range artifactFiles {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) && file != ParamsFile && file != ResultFile {
				continue
			}
			return "", err
		}
		if err := copyFile(path, filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

// ReadParams loads the parameters a genome was decoded with.
func ReadParams(baseDir, genomeID string) (params.Params, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, genomeID, ParamsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return params.Params{}, false, nil
		}
		return params.Params{}, false, err
	}
	var p params.Params
	if err := json.Unmarshal(data, &p); err != nil {
		return params.Params{}, false, err
	}
	return p, true, nil
}

// ReadResult loads the decode result written for genomeID. The grammar
// matrix is not part of result.json and stays nil.
func ReadResult(baseDir, genomeID string) (*decode.Result, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, genomeID, ResultFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var res decode.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false, fmt.Errorf("read result %s: %w", genomeID, err)
	}
	return &res, true, nil
}

func writeWith(path string, fn func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
