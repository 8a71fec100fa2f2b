package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/axel-dashboard/internal/index"
)

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Scan and index knowledge notes for full-text search",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			roots := noteRoots(cfg)
			fmt.Fprintf(os.Stderr, "Scanning notes...\n")
			fmt.Fprintf(os.Stderr, "  Memory:    %s\n", roots.MemoryDir)
			fmt.Fprintf(os.Stderr, "  Advisors:  %s\n", roots.AdvisorsDir)
			fmt.Fprintf(os.Stderr, "  Inventory: %s\n", roots.InventoryFile)

			stats, err := index.IndexAll(db, roots)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}
}
