package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/axel-dashboard/internal/index"
	"github.com/Zuo-Peng/axel-dashboard/internal/knowledge"
	"github.com/Zuo-Peng/axel-dashboard/internal/scan"
	"github.com/Zuo-Peng/axel-dashboard/internal/status"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify log and note locations, the index and the upstream probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Println("=== Logs ===")
			checkDir("Logs", cfg.LogsDir)
			checkFile("Activity", cfg.ActivityFile())
			checkDir("Conversations", cfg.ConversationDir)
			if dates, err := newLogStore(cfg).ConversationDates(); err == nil {
				fmt.Printf("  Conversation days: %d\n", len(dates))
			}

			fmt.Println("\n=== Knowledge ===")
			checkDir("Memory", cfg.MemoryDir)
			checkFile("Inventory", cfg.InventoryFile)
			checkDir("Advisors", cfg.AdvisorsDir)
			checkDir("Public", cfg.PublicDir)

			fmt.Println("\n=== Note Scan ===")
			files, err := scan.ScanNotes(noteRoots(cfg))
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				counts := make(map[string]int)
				for _, f := range files {
					counts[f.Category]++
				}
				kinds := append(append([]string{}, knowledge.Categories...), "advisors", "inventory")
				for _, c := range kinds {
					fmt.Printf("  %-10s %d\n", c+":", counts[c])
				}
			}

			fmt.Println("\n=== Upstream ===")
			st := status.NewProber(cfg.StatusURL, cfg.StatusMatch).Probe(cmd.Context())
			fmt.Printf("  %s: ", cfg.StatusURL)
			if st.CLIProxyAPI {
				fmt.Println("OK")
			} else {
				fmt.Println("DOWN")
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'axd index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			noteCount, err := db.NoteCount()
			if err != nil {
				return fmt.Errorf("count notes: %w", err)
			}
			fmt.Printf("  Notes: %d\n", noteCount)

			fmt.Println("\n=== FTS5 ===")
			ftsCount, err := db.FTSCount()
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == noteCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (notes=%d, fts=%d)\n", noteCount, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeKB := float64(info.Size()) / 1024
				fmt.Printf("\n=== DB Size: %.1f KB ===\n", sizeKB)
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if path == "" {
		fmt.Printf("  %s: (not configured)\n", name)
	} else if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}

func checkFile(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if info.IsDir() {
		fmt.Printf("  %s: %s (IS A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK, %d bytes)\n", name, path, info.Size())
	}
}
