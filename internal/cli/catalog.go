package cli

import (
	"fmt"

	"github.com/franckalain/ecoscan/internal/catalog"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the materials and alternatives used by the local detector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderCatalog(catalog.Default()))
			return nil
		},
	}
}
