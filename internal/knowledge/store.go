// Package knowledge reads the markdown memory knowledge base: categorized
// notes, the inventory note and advisor notes.
package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const noteExt = ".md"

// Categories are the memory directories served, in display order.
var Categories = []string{"solutions", "errors", "patterns"}

var (
	ErrInvalidType = errors.New("invalid type")
	ErrNotFound    = errors.New("not found")
)

type Config struct {
	MemoryDir     string
	AdvisorsDir   string
	InventoryFile string
}

type Store struct {
	cfg Config
}

func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// Entry is one note in a memory category.
type Entry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
}

// Advisor is one advisor note.
type Advisor struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Memory maps every category to its notes. A missing category directory
// yields an empty list for that category only.
func (s *Store) Memory() (map[string][]Entry, error) {
	memory := make(map[string][]Entry, len(Categories))
	for _, category := range Categories {
		entries, err := s.listCategory(category)
		if err != nil {
			return nil, err
		}
		memory[category] = entries
	}
	return memory, nil
}

func (s *Store) listCategory(category string) ([]Entry, error) {
	dir := filepath.Join(s.cfg.MemoryDir, category)
	files, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category, err)
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, noteExt) {
			continue
		}
		info, err := f.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue // removed while listing
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		entries = append(entries, Entry{
			Name:     strings.TrimSuffix(name, noteExt),
			Path:     filepath.Join(dir, name),
			Modified: info.ModTime(),
		})
	}
	return entries, nil
}

// ValidCategory reports whether category is one of Categories.
func ValidCategory(category string) bool {
	return slices.Contains(Categories, category)
}

// EntryPath resolves a note name inside a category. Any directory part of
// name is discarded, so the result always lies in the category directory.
func (s *Store) EntryPath(category, name string) (string, error) {
	if !ValidCategory(category) {
		return "", fmt.Errorf("%w: %s", ErrInvalidType, category)
	}
	safeName := filepath.Base(name)
	return filepath.Join(s.cfg.MemoryDir, category, safeName+noteExt), nil
}

// MemoryEntry returns the raw markdown of one note.
func (s *Store) MemoryEntry(category, name string) (string, error) {
	path, err := s.EntryPath(category, name)
	if err != nil {
		return "", err
	}
	return readNote(path)
}

// Inventory returns the raw markdown of the inventory note.
func (s *Store) Inventory() (string, error) {
	return readNote(s.cfg.InventoryFile)
}

// Advisors lists advisor notes; a missing directory yields an empty result.
func (s *Store) Advisors() ([]Advisor, error) {
	files, err := os.ReadDir(s.cfg.AdvisorsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Advisor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list advisors: %w", err)
	}

	advisors := make([]Advisor, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, noteExt) {
			continue
		}
		advisors = append(advisors, Advisor{
			Name: strings.TrimSuffix(name, noteExt),
			Path: filepath.Join(s.cfg.AdvisorsDir, name),
		})
	}
	return advisors, nil
}

// readNote reads a regular file; anything else at path counts as absent.
func readNote(path string) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return string(data), nil
}
