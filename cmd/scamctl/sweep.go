package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Scamwatch/internal/services"
)

func newSweepCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire lapsed unverified reports now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openDB(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := services.NewSweepService(st).Sweep()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d report(s)\n", n)
			return nil
		},
	}
	dbFlag(cmd, &dbPath)
	return cmd
}
