package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/vebridge/internal/model"
)

func newLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Print the captured output of the most recent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cleanup, err := openModel(cmd, false, model.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			return m.LastRunLogs(os.Stdout)
		},
	}
}
