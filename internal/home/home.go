package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the tabled home directory.
	DefaultDirName = ".tabled"

	// UploadsDirName is the subdirectory holding per-job storage units.
	UploadsDirName = "uploads"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// ResultExt is the file extension of the stored result document.
	ResultExt = ".xml"
)

// Dir represents the tabled home directory structure. Each job owns a
// disjoint storage unit under uploads/<id>/ containing the state record,
// the original image, and the result document.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.tabled).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// UploadsPath returns the path to the uploads directory.
func (d *Dir) UploadsPath() string {
	return filepath.Join(d.path, UploadsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.UploadsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// JobDir returns the storage unit for a job.
func (d *Dir) JobDir(jobID string) string {
	return filepath.Join(d.UploadsPath(), jobID)
}

// EnsureJobDir creates the storage unit for a job.
func (d *Dir) EnsureJobDir(jobID string) error {
	return os.MkdirAll(d.JobDir(jobID), 0o755)
}

// StatePath returns the path to a job's state record.
func (d *Dir) StatePath(jobID string) string {
	return filepath.Join(d.JobDir(jobID), jobID+"_state.json")
}

// ImagePath returns the path to a job's uploaded image, preserving the
// extension of the original filename.
func (d *Dir) ImagePath(jobID, ext string) string {
	return filepath.Join(d.JobDir(jobID), jobID+ext)
}

// ResultPath returns the path to a job's result document.
func (d *Dir) ResultPath(jobID string) string {
	return filepath.Join(d.JobDir(jobID), jobID+ResultExt)
}
