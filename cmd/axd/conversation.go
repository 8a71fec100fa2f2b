package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/axel-dashboard/internal/render"
)

func conversationCmd() *cobra.Command {
	var asJSON bool
	var query string

	cmd := &cobra.Command{
		Use:   "conversation [date]",
		Short: "List conversation days, or print one day's conversation",
		Long: `Without an argument, lists the available days, most recent first.
With a date (YYYY-MM-DD), prints that day's messages in file order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			store := newLogStore(cfg)

			if len(args) == 0 {
				dates, err := store.ConversationDates()
				if err != nil {
					return err
				}
				if asJSON {
					return json.NewEncoder(os.Stdout).Encode(dates)
				}
				if len(dates) == 0 {
					fmt.Fprintln(os.Stderr, "No conversations found.")
					return nil
				}
				for _, d := range dates {
					fmt.Printf("%s\t%s\n", d.Date, d.File)
				}
				return nil
			}

			messages, err := store.Conversation(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(messages)
			}
			fmt.Print(render.Conversation(messages, renderOptions(query)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	cmd.Flags().StringVar(&query, "query", "", "Keywords to highlight")

	return cmd
}
