package storage

import (
	"fmt"
	"jobmail/models"
	"jobmail/utils"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultResumeExtensions are the attachment-eligible file endings
var DefaultResumeExtensions = []string{".pdf", ".docx", ".doc"}

// ResumeStorage lists resume files in a single directory
type ResumeStorage struct {
	dir        string
	preferred  string
	extensions []string
}

// NewResumeStorage creates a lister for dir. preferred is the filename offered
// by default when present.
func NewResumeStorage(dir, preferred string, extensions ...string) *ResumeStorage {
	if len(extensions) == 0 {
		extensions = DefaultResumeExtensions
	}
	return &ResumeStorage{
		dir:        dir,
		preferred:  preferred,
		extensions: extensions,
	}
}

// List returns eligible file names sorted ascending. Matching ignores case,
// the returned names keep theirs. The directory is read on every call.
func (rs *ResumeStorage) List() ([]string, error) {
	entries, err := os.ReadDir(rs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume directory: %w", err)
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !rs.eligible(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Default returns the preferred resume if listed, otherwise the no-attachment choice
func (rs *ResumeStorage) Default() string {
	files, err := rs.List()
	if err != nil {
		utils.Log.Warn("Failed to list resumes: %v", err)
		return models.NoAttachment
	}
	for _, f := range files {
		if f == rs.preferred {
			return f
		}
	}
	return models.NoAttachment
}

// Choices returns the selector options: the no-attachment choice followed by List
func (rs *ResumeStorage) Choices() ([]string, error) {
	files, err := rs.List()
	if err != nil {
		return []string{models.NoAttachment}, err
	}
	return append([]string{models.NoAttachment}, files...), nil
}

// Path resolves a listed file name to its location on disk
func (rs *ResumeStorage) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || !rs.eligible(name) {
		return "", fmt.Errorf("%w: resume %q", utils.ErrNotFound, name)
	}
	path := filepath.Join(rs.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: resume %q", utils.ErrNotFound, name)
	}
	return path, nil
}

func (rs *ResumeStorage) eligible(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range rs.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
