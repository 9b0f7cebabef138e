package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brightlane/prospect-cli/internal/model"
)

var recordsStatus string

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect the persisted snapshot",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted records, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		snap, err := st.Load(ctx)
		if err != nil {
			return eris.Wrap(err, "load snapshot")
		}

		records := snap.Records
		if recordsStatus != "" {
			filtered := records[:0]
			for _, r := range records {
				if string(r.Status) == recordsStatus {
					filtered = append(filtered, r)
				}
			}
			records = filtered
		}
		if records == nil {
			records = []model.Record{}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

func init() {
	recordsListCmd.Flags().StringVar(&recordsStatus, "status", "", "filter by status, e.g. Inactive")
	recordsCmd.AddCommand(recordsListCmd)
	rootCmd.AddCommand(recordsCmd)
}
