package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fastertools/signals-mcp/internal/catalog"
	"github.com/fastertools/signals-mcp/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the feature catalog",
	}

	cmd.AddCommand(newCatalogShowCmd())

	return cmd
}

func newCatalogShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the feature view the server fetches",
		Long: `Print the active feature view: the built-in one, or the file set with
--catalog / SIGNALS_CATALOG_FILE. The yaml output can be used as a starting
point for a custom catalog file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			of, err := ParseOutputFormat(format)
			if err != nil {
				return err
			}
			return runCatalogShow(cmd.OutOrStdout(), viper.GetString(config.KeyCatalogFile), of)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

func runCatalogShow(out io.Writer, path string, format OutputFormat) error {
	view, err := catalog.Load(path)
	if err != nil {
		return err
	}

	dw := NewDataWriter(out, format)
	if format != OutputFormatText {
		return dw.WriteTable(nil, nil, view)
	}

	entities := make([]string, 0, len(view.Entities))
	for _, e := range view.Entities {
		entities = append(entities, fmt.Sprintf("%s (%s)", e.Name, e.Key))
	}
	source := "built-in"
	if path != "" {
		source = path
	}
	if err := NewKeyValueBuilder("Feature View").
		Add("Name", view.Name).
		Add("Version", view.Version).
		Add("Reference", view.Ref()).
		Add("Entities", strings.Join(entities, ", ")).
		Add("Source", source).
		Write(dw); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out)

	tb := NewTableBuilder("FEATURE", "TYPE", "DTYPE", "PROPERTY", "EVENTS", "DESCRIPTION")
	for _, f := range view.Features {
		prop := f.Property
		if prop == "" {
			prop = "-"
		}
		tb.AddRow(f.Name, string(f.Type), string(f.DType), prop, shortEvents(f.Events), f.Description)
	}
	return tb.Write(dw, view)
}

// shortEvents trims iglu URIs down to vendor/name for the table.
func shortEvents(events []string) string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		e = strings.TrimPrefix(e, "iglu:")
		parts := strings.Split(e, "/")
		if len(parts) >= 2 {
			e = parts[1]
		}
		names = append(names, e)
	}
	return strings.Join(names, ",")
}
