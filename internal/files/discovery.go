package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// ImportExtensions lists the file types batch ingestion picks up from a
// directory. Explicitly named files are accepted with any extension.
var ImportExtensions = []string{
	".csv", ".tsv", ".tab", ".txt",
	".xlsx", ".xlsm", ".xls",
	".htm", ".html", ".mht", ".mhtml",
}

// Discovery finds import files under a base directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindImportFiles lists the importable files of dir, oldest first so that
// later files win on merge conflicts. Ties are ordered by name.
func (d *Discovery) FindImportFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsImportFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sortByAge(files)
	return files, nil
}

// Expand turns a list of file and directory arguments into the ordered
// list of files to ingest. Files keep their argument order; each directory
// is replaced by its import files, oldest first.
func (d *Discovery) Expand(inputs []string) ([]FileInfo, error) {
	var files []FileInfo
	for _, input := range inputs {
		fullPath := d.resolve(input)
		info, err := os.Stat(fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", input, err)
		}
		if !info.IsDir() {
			files = append(files, FileInfo{
				Path:    fullPath,
				Name:    info.Name(),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
			continue
		}
		found, err := d.FindImportFiles(fullPath)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// IsImportFile reports whether name has one of the ImportExtensions.
// Hidden files and editor lock files are rejected.
func IsImportFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range ImportExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

func sortByAge(files []FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
}
