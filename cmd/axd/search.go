package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/axel-dashboard/internal/index"
	"github.com/Zuo-Peng/axel-dashboard/internal/search"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorYellow  = "\033[1;33m"
	sColorMagenta = "\033[1;35m"
	sColorDim     = "\033[2m"
)

func colorizeCategory(category string) string {
	if !stdoutIsTerminal() {
		return category
	}
	switch category {
	case "solutions":
		return sColorGreen + category + sColorReset
	case "errors":
		return sColorBoldRed + category + sColorReset
	case "patterns":
		return sColorBlue + category + sColorReset
	case "advisors":
		return sColorMagenta + category + sColorReset
	default:
		return sColorYellow + category + sColorReset
	}
}

// colorizeSnippet turns the >>> <<< hit markers into ANSI highlights, or
// strips them when color is off.
func colorizeSnippet(snippet string, color bool) string {
	if !color {
		snippet = strings.ReplaceAll(snippet, ">>>", "")
		return strings.ReplaceAll(snippet, "<<<", "")
	}
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func searchCmd() *cobra.Command {
	var category string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across knowledge notes",
		Long: `Search indexed notes using FTS5. The index is refreshed first.
Output is TSV for fzf integration:
  key, category, modified, name, snippet

Example shell function:
  axdf() {
    axd search "$*" | fzf \
      --delimiter='\t' --with-nth=2.. \
      --bind 'enter:execute(axd open $(echo {1} | tr / " "))'
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			// Auto-update index before searching
			if _, err := index.IndexAll(db, noteRoots(cfg)); err != nil {
				logger.Warn().Err(err).Msg("refresh note index")
			}

			results, err := search.Search(db, search.Options{
				Query:    args[0],
				Category: category,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			color := stdoutIsTerminal()
			for _, r := range results {
				modified := r.Modified
				if color {
					modified = sColorDim + modified + sColorReset
				}
				// first field stays plain for fzf {1}
				fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
					r.NoteKey,
					colorizeCategory(r.Category),
					modified,
					tsvField(r.Name),
					colorizeSnippet(tsvField(r.Snippet), color),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category (solutions/errors/patterns/advisors/inventory)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Max results")

	return cmd
}
