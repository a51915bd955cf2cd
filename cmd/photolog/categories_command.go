package main

import (
	"fmt"
	"strings"

	"github.com/jo-hoe/photolog/internal/core"
	"github.com/spf13/cobra"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the configured categories and their subcategories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resolver, err := core.NewResolver(config)
			if err != nil {
				return err
			}

			rows := make([][]string, 0)
			for _, name := range resolver.Categories() {
				rows = append(rows, []string{name, strings.Join(resolver.Subcategories(name), ", ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Category 1", "Category 2"}, rows))
			return nil
		},
	}
}
