package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aitool/sleuth/internal/backend"
	"github.com/aitool/sleuth/internal/output"
)

func newFilesCommand(r *root) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List uploaded files and their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			renderer, err := output.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			svc, err := r.services()
			if err != nil {
				return err
			}
			files, err := svc.Files.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", backend.Describe(err))
			}
			for _, f := range files {
				if err := renderer.File(f); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text, json")
	return cmd
}

func newParseCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file-id>...",
		Short: "Trigger server-side parsing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := r.services()
			if err != nil {
				return err
			}
			// Per-file failures reach stderr through the log hook.
			summary := svc.Files.ParseSelected(cmd.Context(), args)
			fmt.Fprintln(cmd.OutOrStdout(), summary.Message())
			if summary.Succeeded == 0 {
				return fmt.Errorf("no parse was triggered")
			}
			return nil
		},
	}
}

func newDeleteCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file-id>...",
		Short: "Delete files from the backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := r.services()
			if err != nil {
				return err
			}
			// Individual failures are logged; the run itself is reported as done.
			summary := svc.Files.DeleteSelected(cmd.Context(), args)
			fmt.Fprintln(cmd.OutOrStdout(), summary.Message())
			return nil
		},
	}
}
