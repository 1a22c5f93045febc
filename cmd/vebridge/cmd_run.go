package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/vebridge/internal/model"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the prepared experiment under the R runtime",
		Long: `Execute the core model as a subprocess of the external R runtime.

Requires a completed 'vebridge setup'. The run blocks until the model
finishes; interrupting vebridge kills the subprocess. Captured stdout
and stderr are kept for 'vebridge logs' whether the run succeeds or
fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rscript, _ := cmd.Flags().GetString("rscript")

			m, cleanup, err := openModel(cmd, false, model.Options{Rscript: rscript})
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			if err := m.Run(ctx); err != nil {
				var runErr *model.RunError
				if errors.As(err, &runErr) {
					fmt.Fprintf(os.Stderr, "model run exited with code %d; see 'vebridge logs'\n", runErr.ExitCode)
				}
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{
					"status": m.State(),
					"run_id": m.RunID(),
				})
			} else {
				fmt.Printf("Model run complete (run %s)\n", m.RunID())
			}
			return nil
		},
	}

	cmd.Flags().String("rscript", "", "R runtime executable (default Rscript)")

	return cmd
}

// signalContext derives a context that is cancelled when the process
// receives an interrupt, so a running subprocess can be killed.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(cmd.Context())
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
