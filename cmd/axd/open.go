package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/axel-dashboard/internal/config"
	"github.com/Zuo-Peng/axel-dashboard/internal/index"
	"github.com/Zuo-Peng/axel-dashboard/internal/knowledge"
	"github.com/Zuo-Peng/axel-dashboard/internal/open"
)

func openCmd() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "open <type> <name> | open <type/name>",
		Short: "Open a note in $EDITOR",
		Long: `Open a knowledge note in $EDITOR. Memory categories resolve directly;
other types (advisors, inventory) are looked up in the note index, so the
search key printed by 'axd search' works as-is.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			category, name, ok := splitNoteArgs(args)
			if !ok {
				return fmt.Errorf("expected <type> <name> or <type/name>, got %q", strings.Join(args, " "))
			}

			path, err := resolveNotePath(cfg, category, name)
			if err != nil {
				return err
			}
			return open.OpenNote(path, match)
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "Jump to the first line containing this text")

	return cmd
}

func splitNoteArgs(args []string) (category, name string, ok bool) {
	if len(args) == 2 {
		return args[0], args[1], args[0] != "" && args[1] != ""
	}
	category, name, ok = strings.Cut(args[0], "/")
	return category, name, ok && category != "" && name != ""
}

func resolveNotePath(cfg *config.Config, category, name string) (string, error) {
	if knowledge.ValidCategory(category) {
		return newKnowledgeStore(cfg).EntryPath(category, name)
	}

	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return "", fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if _, err := index.IndexAll(db, noteRoots(cfg)); err != nil {
		return "", fmt.Errorf("index: %w", err)
	}
	note, err := db.GetNoteByKey(index.NoteKey(category, name))
	if err != nil {
		return "", err
	}
	if note == nil {
		return "", fmt.Errorf("%w: %s", knowledge.ErrNotFound, index.NoteKey(category, name))
	}
	return note.FilePath, nil
}
