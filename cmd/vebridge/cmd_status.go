package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/vebridge/internal/model"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current experiment state",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cleanup, err := openModel(cmd, false, model.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]any{
					"state":  m.State(),
					"run_id": m.RunID(),
					"params": m.Params(),
				})
				return nil
			}

			fmt.Printf("State:  %s\n", m.State())
			if m.RunID() != "" {
				fmt.Printf("Run:    %s\n", m.RunID())
			}
			if params := m.Params(); len(params) > 0 {
				fmt.Println("Params:")
				for _, name := range m.Scope().ParamNames() {
					if v, ok := params[name]; ok {
						fmt.Printf("  %-24s %v\n", name, v)
					}
				}
			}
			return nil
		},
	}
}
