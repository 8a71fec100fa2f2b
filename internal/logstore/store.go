// Package logstore reads the tool activity log and the per-date
// conversation logs.
package logstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Zuo-Peng/axel-dashboard/internal/parse"
)

// ActivityLimit is the number of most recent activity lines served.
const ActivityLimit = 100

// ConversationExt is the suffix of a per-date conversation log.
const ConversationExt = ".jsonl"

type Config struct {
	ActivityFile    string
	ConversationDir string
}

type Store struct {
	cfg Config
}

func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// ConversationDate names one conversation log file.
type ConversationDate struct {
	Date string `json:"date"`
	File string `json:"file"`
}

// Activity returns up to ActivityLimit records, newest first.
// A missing log yields an empty result.
func (s *Store) Activity() ([]parse.ActivityRecord, error) {
	lines, err := parse.ReadLines(s.cfg.ActivityFile)
	if errors.Is(err, fs.ErrNotExist) {
		return []parse.ActivityRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}

	if len(lines) > ActivityLimit {
		lines = lines[len(lines)-ActivityLimit:]
	}

	records := make([]parse.ActivityRecord, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		records = append(records, parse.ParseActivity(lines[i]))
	}
	return records, nil
}

// ConversationDates lists conversation logs, most recent date first.
func (s *Store) ConversationDates() ([]ConversationDate, error) {
	entries, err := os.ReadDir(s.cfg.ConversationDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []ConversationDate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	dates := make([]ConversationDate, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ConversationExt) {
			continue
		}
		dates = append(dates, ConversationDate{
			Date: strings.TrimSuffix(name, ConversationExt),
			File: name,
		})
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Date > dates[j].Date
	})
	return dates, nil
}

// Conversation returns the parseable messages of one day's log in file
// order. Unparseable lines are dropped; a missing log yields an empty result.
func (s *Store) Conversation(date string) ([]parse.Message, error) {
	path := s.ConversationPath(date)
	lines, err := parse.ReadLines(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []parse.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read conversation %s: %w", filepath.Base(path), err)
	}

	messages := make([]parse.Message, 0, len(lines))
	for _, line := range lines {
		if msg, ok := parse.ParseMessage([]byte(line)); ok {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// ConversationPath resolves a date to its log file after sanitizing it.
func (s *Store) ConversationPath(date string) string {
	return filepath.Join(s.cfg.ConversationDir, SanitizeDate(date)+ConversationExt)
}

// SanitizeDate reduces date to its last path element and keeps only digits
// and hyphens.
func SanitizeDate(date string) string {
	base := filepath.Base(filepath.ToSlash(date))
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, base)
}
