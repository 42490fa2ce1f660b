package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backtrue/sbirkb/internal/search"
)

func newExpandCmd() *cobra.Command {
	var keywords bool

	cmd := &cobra.Command{
		Use:   "expand <query>",
		Short: "Show synonym expansions for a query",
		Long: `Show the synonym variants a query expands into before scoring.
Useful for checking why a search did or did not match a document.

Examples:
  sbirkb expand "預算編列"
  sbirkb expand "補助金額" --keywords`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			if keywords {
				for _, kw := range search.ExpandKeywords(query) {
					fmt.Fprintln(cmd.OutOrStdout(), kw)
				}
				return nil
			}

			for _, variant := range search.ExpandQuery(query) {
				fmt.Fprintln(cmd.OutOrStdout(), variant)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keywords, "keywords", false, "Show the deduplicated keyword list instead of variants")

	return cmd
}
