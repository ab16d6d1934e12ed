// cmd/rowbind/preview.go
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chmenegatti/rowbind/pkg/dialects"
	"github.com/chmenegatti/rowbind/pkg/plan"
	"github.com/chmenegatti/rowbind/pkg/row"
	"github.com/chmenegatti/rowbind/pkg/rowbind"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		file   string
		record string
		query  string
		args   []string
		limit  int
		mode   string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Run a query and print its rows converted into a record",
		Long: `Connects to the configured database, runs --query and converts each
returned row into --record, printing one JSON object per row. For
mongodb the query is extended JSON: {"collection": "users", "filter": {}}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := plan.ParseMode(mode)
			if err != nil {
				return err
			}
			catalog, err := a.loadCatalog(file)
			if err != nil {
				return err
			}
			if _, err := catalog.Plan(record, m); err != nil {
				return err
			}

			ctx := cmd.Context()
			ds, err := dialects.Open(ctx, a.cfg.Database, a.logger)
			if err != nil {
				return err
			}
			defer ds.Close()

			queryArgs := make([]any, len(args))
			for i, arg := range args {
				queryArgs[i] = arg
			}
			cur, err := ds.Query(ctx, query, queryArgs...)
			if err != nil {
				return err
			}
			defer cur.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			n := 0
			for (limit <= 0 || n < limit) && cur.Next(ctx) {
				r, err := cur.Row()
				if err != nil {
					return err
				}
				v, err := convert(catalog, r, record, m)
				if err != nil {
					return fmt.Errorf("row %d: %w", n+1, err)
				}
				if err := enc.Encode(v); err != nil {
					return err
				}
				n++
			}
			if err := cur.Err(); err != nil {
				return err
			}
			a.logger.Info("preview finished", "record", record, "rows", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Record descriptor file (YAML)")
	cmd.Flags().StringVarP(&record, "record", "r", "", "Record to convert rows into")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Query to run")
	cmd.Flags().StringArrayVar(&args, "arg", nil, "Query argument (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of rows to print (0 for all)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "fallible", "infallible or fallible")
	for _, name := range []string{"file", "record", "query"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// convert runs the conversion in mode m. An infallible conversion's panic is
// reported as the command's error.
func convert(c *rowbind.Catalog, r row.Row, record string, m plan.Mode) (v any, err error) {
	if m == plan.Fallible {
		return c.ConvertFallible(r, record)
	}
	defer func() {
		if p := recover(); p != nil {
			if perr, ok := p.(error); ok {
				err = fmt.Errorf("conversion panicked: %w", perr)
				return
			}
			err = fmt.Errorf("conversion panicked: %v", p)
		}
	}()
	return c.ConvertInfallible(r, record), nil
}
