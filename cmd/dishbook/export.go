package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/foodielens/dishbook/internal/domain"
	"github.com/foodielens/dishbook/internal/infra/providers"
	"github.com/foodielens/dishbook/internal/infra/tabular"
	"github.com/foodielens/dishbook/internal/usecase"
)

type exportOptions struct {
	*rootOptions
	Out string
}

func newExportCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &exportOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the record table as CSV",
		Long: `Stream every record, in insertion order, as CSV.

Example:
  dishbook export --config config.yaml --out food_data.csv
  dishbook export --out - | head`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := opts.load()
			if err != nil {
				return err
			}

			app, err := providers.NewApp(cmd.Context(), conf)
			if err != nil {
				return err
			}
			defer app.Close()

			if opts.Out == "-" {
				return exportRecords(cmd.Context(), app.Records, cmd.OutOrStdout())
			}
			return exportFile(cmd.Context(), app.Records, opts.Out)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "food_data.csv", `output file, "-" for stdout`)

	return cmd
}

// exportFile writes next to path and renames, so an interrupted export never
// replaces a good file.
func exportFile(ctx context.Context, records *usecase.RecordUsecase, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := exportRecords(ctx, records, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func exportRecords(ctx context.Context, records *usecase.RecordUsecase, w io.Writer) error {
	tw := tabular.NewWriter(w)
	for record, err := range records.List(ctx, domain.MaxPageSize) {
		if err != nil {
			return errors.Wrap(err, "list records")
		}
		if err := tw.Write(record); err != nil {
			return err
		}
	}
	return tw.Flush()
}
