package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Scamwatch/internal/services"
)

func newExportCmd() *cobra.Command {
	var (
		dbPath string
		params services.ExportParams
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write reports or per-identifier summaries as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openDB(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()
			res, err := services.NewExportService(st).ExportCSV(params)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(res.Data)
				return err
			}
			return os.WriteFile(output, res.Data, 0o600)
		},
	}
	dbFlag(cmd, &dbPath)
	cmd.Flags().StringVar(&params.Format, "format", "reports", "reports or summary")
	cmd.Flags().StringVar(&params.ScamType, "scam-type", "", "only this scam type")
	cmd.Flags().BoolVar(&params.IncludeHidden, "include-hidden", false, "include hidden reports")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}
