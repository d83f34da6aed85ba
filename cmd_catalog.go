package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"policy_workbench/generator"
)

func newCatalogCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the categories, audiences, packages and media options",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := generator.DefaultCatalog()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cat)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cat)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	return cmd
}
