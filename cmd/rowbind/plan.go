// cmd/rowbind/plan.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chmenegatti/rowbind/pkg/plan"
	"github.com/chmenegatti/rowbind/pkg/rowbind"
	"github.com/chmenegatti/rowbind/pkg/schema"
)

// parseModes accepts "infallible", "fallible" or "both".
func parseModes(s string) ([]plan.Mode, error) {
	if strings.EqualFold(strings.TrimSpace(s), "both") {
		return []plan.Mode{plan.Infallible, plan.Fallible}, nil
	}
	m, err := plan.ParseMode(s)
	if err != nil {
		return nil, err
	}
	return []plan.Mode{m}, nil
}

// loadCatalog reads a descriptor file into a catalog built with the
// configured parser.
func (a *app) loadCatalog(path string) (*rowbind.Catalog, error) {
	descs, err := schema.LoadDescriptorFile(path)
	if err != nil {
		return nil, err
	}
	return rowbind.NewCatalog(descs, rowbind.WithParser(a.parser), rowbind.WithLogger(a.logger))
}

func newPlanCmd(a *app) *cobra.Command {
	var (
		file   string
		record string
		mode   string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the binding plans of the records in a descriptor file",
		Long: `Compiles every record of the descriptor file (or only --record) and
prints, for each field, how it is read from a row and what happens when
the read fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modes, err := parseModes(mode)
			if err != nil {
				return err
			}
			catalog, err := a.loadCatalog(file)
			if err != nil {
				return err
			}

			names := catalog.Names()
			if record != "" {
				names = []string{record}
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				for _, m := range modes {
					p, err := catalog.Plan(name, m)
					if err != nil {
						return fmt.Errorf("record %s: %w", name, err)
					}
					fmt.Fprintln(out, p)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Record descriptor file (YAML)")
	cmd.Flags().StringVarP(&record, "record", "r", "", "Only compile this record")
	cmd.Flags().StringVarP(&mode, "mode", "m", "both", "infallible, fallible or both")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
