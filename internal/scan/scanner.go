package scan

import (
	"os"
	"path/filepath"
	"strings"
)

const noteExt = ".md"

type FileInfo struct {
	Path     string
	Category string // memory category, "advisors" or "inventory"
	Name     string
	Mtime    int64
	Size     int64
}

// Roots locates the markdown notes of the knowledge base.
type Roots struct {
	MemoryDir     string
	Categories    []string
	AdvisorsDir   string
	InventoryFile string
}

// ScanNotes lists every note under roots. Missing directories are skipped.
func ScanNotes(r Roots) ([]FileInfo, error) {
	var files []FileInfo

	if r.MemoryDir != "" {
		for _, category := range r.Categories {
			cf, err := scanDir(filepath.Join(r.MemoryDir, category), category, true)
			if err != nil && !os.IsNotExist(err) {
				return nil, err
			}
			files = append(files, cf...)
		}
	}

	if r.AdvisorsDir != "" {
		af, err := scanDir(r.AdvisorsDir, "advisors", false)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		files = append(files, af...)
	}

	if r.InventoryFile != "" {
		if info, err := os.Stat(r.InventoryFile); err == nil && !info.IsDir() {
			files = append(files, FileInfo{
				Path:     r.InventoryFile,
				Category: "inventory",
				Name:     strings.TrimSuffix(filepath.Base(r.InventoryFile), noteExt),
				Mtime:    info.ModTime().Unix(),
				Size:     info.Size(),
			})
		}
	}

	return files, nil
}

func scanDir(dir, category string, skipHidden bool) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != noteExt {
			continue
		}
		if skipHidden && strings.HasPrefix(name, ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed while scanning
		}
		files = append(files, FileInfo{
			Path:     filepath.Join(dir, name),
			Category: category,
			Name:     strings.TrimSuffix(name, noteExt),
			Mtime:    info.ModTime().Unix(),
			Size:     info.Size(),
		})
	}
	return files, nil
}
