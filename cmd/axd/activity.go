package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/axel-dashboard/internal/render"
)

func activityCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Print recent tool activity, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			records, err := newLogStore(cfg).Activity()
			if err != nil {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(records)
			}
			fmt.Print(render.Activity(records, renderOptions("")))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Max records (0 = all, capped at 100)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")

	return cmd
}
