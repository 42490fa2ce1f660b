package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backtrue/sbirkb/internal/config"
	"github.com/backtrue/sbirkb/internal/kb"
)

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <path>",
		Short: "Print a knowledge-base document",
		Long: `Print a document by its path relative to the knowledge-base root.

Examples:
  sbirkb read faq/budget.md
  sbirkb read checklists/phase1.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flag("kb").Value.String())
			if err != nil {
				return err
			}

			doc, err := kb.NewLoader(cfg.KB.Root, nil).Read(args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), doc.Body)
			return err
		},
	}

	return cmd
}
