package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-docpager/internal/fileutil"
)

// snapshotExtensions are the file extensions compose picks up in directories.
var snapshotExtensions = []string{".yaml", ".yml"}

// composeJob is one snapshot to lay out and where its outputs go.
type composeJob struct {
	InputPath string
	HTMLPath  string
	PDFPath   string // empty unless PDF export is on
}

// discoverSnapshots expands inputs into jobs. Files are taken as given;
// directories are walked for snapshot files, keeping their relative layout
// under outputDir. Duplicate inputs are composed once.
func discoverSnapshots(inputs []string, outputDir string, pdf bool) ([]composeJob, error) {
	var jobs []composeJob
	seen := make(map[string]bool)

	add := func(path, out string) {
		if seen[path] {
			return
		}
		seen[path] = true
		job := composeJob{InputPath: path, HTMLPath: fileutil.OutputPath(path, out, "html")}
		if pdf {
			job.PDFPath = fileutil.OutputPath(path, out, "pdf")
		}
		jobs = append(jobs, job)
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(input, outputDir)
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if d.IsDir() || !isSnapshot(path) {
				return nil
			}
			add(path, relativeOutputDir(input, path, outputDir))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

// relativeOutputDir mirrors path's directory below base into outputDir. An
// empty outputDir keeps outputs next to their snapshot.
func relativeOutputDir(base, path, outputDir string) string {
	if outputDir == "" {
		return ""
	}
	rel, err := filepath.Rel(base, filepath.Dir(path))
	if err != nil {
		return outputDir
	}
	return filepath.Join(outputDir, rel)
}

func isSnapshot(path string) bool {
	return slices.Contains(snapshotExtensions, strings.ToLower(filepath.Ext(path)))
}
