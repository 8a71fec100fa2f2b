package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/axel-dashboard/internal/knowledge"
)

func memoryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "memory [type [name]]",
		Short: "List knowledge notes or print one",
		Long: `Without arguments, lists notes in every category plus advisors.
With a type (` + strings.Join(knowledge.Categories, ", ") + `), lists that category.
With a type and name, prints the note's markdown. The special type
"inventory" prints the inventory note.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			store := newKnowledgeStore(cfg)

			if len(args) == 1 && args[0] == "inventory" {
				body, err := store.Inventory()
				if errors.Is(err, knowledge.ErrNotFound) {
					return fmt.Errorf("no inventory at %s", cfg.InventoryFile)
				}
				if err != nil {
					return err
				}
				fmt.Print(body)
				return nil
			}

			if len(args) == 2 {
				body, err := store.MemoryEntry(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Print(body)
				return nil
			}

			memory, err := store.Memory()
			if err != nil {
				return err
			}
			categories := knowledge.Categories
			if len(args) == 1 {
				if !knowledge.ValidCategory(args[0]) {
					return fmt.Errorf("%w: %s", knowledge.ErrInvalidType, args[0])
				}
				categories = []string{args[0]}
			}

			if asJSON {
				out := make(map[string][]knowledge.Entry, len(categories))
				for _, c := range categories {
					out[c] = memory[c]
				}
				return json.NewEncoder(os.Stdout).Encode(out)
			}

			for _, c := range categories {
				fmt.Printf("%s (%d)\n", colorizeCategory(c), len(memory[c]))
				for _, e := range memory[c] {
					fmt.Printf("  %s\t%s\n", e.Name, e.Modified.Local().Format("2006-01-02 15:04"))
				}
			}

			if len(args) == 0 {
				advisors, err := store.Advisors()
				if err != nil {
					return err
				}
				fmt.Printf("%s (%d)\n", colorizeCategory("advisors"), len(advisors))
				for _, a := range advisors {
					fmt.Printf("  %s\n", a.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")

	return cmd
}
