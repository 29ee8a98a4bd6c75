package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(format string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(format)) {
	case "", OutputFormatText, "table":
		return OutputFormatText, nil
	case OutputFormatJSON:
		return OutputFormatJSON, nil
	case OutputFormatYAML, "yml":
		return OutputFormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use text, json or yaml)", format)
	}
}

// DataWriter handles formatted output of structured data
type DataWriter struct {
	output io.Writer
	format OutputFormat
}

// NewDataWriter creates a new DataWriter
func NewDataWriter(output io.Writer, format OutputFormat) *DataWriter {
	return &DataWriter{
		output: output,
		format: format,
	}
}

// WriteKeyValue writes key-value pairs in the given order.
// Empty values are skipped in text output.
func (dw *DataWriter) WriteKeyValue(title string, keys []string, data map[string]interface{}) error {
	switch dw.format {
	case OutputFormatJSON:
		return dw.writeJSON(data)
	case OutputFormatYAML:
		return dw.writeYAML(data)
	case OutputFormatText:
		return dw.writeKeyValueTable(title, keys, data)
	default:
		return fmt.Errorf("unsupported output format: %s", dw.format)
	}
}

// WriteTable writes tabular data with headers. Structured formats encode
// raw instead of the rows.
func (dw *DataWriter) WriteTable(headers []string, rows [][]string, raw interface{}) error {
	switch dw.format {
	case OutputFormatJSON:
		return dw.writeJSON(raw)
	case OutputFormatYAML:
		return dw.writeYAML(raw)
	case OutputFormatText:
		return dw.writeTabularData(headers, rows)
	default:
		return fmt.Errorf("unsupported output format: %s", dw.format)
	}
}

// writeJSON writes data as JSON
func (dw *DataWriter) writeJSON(data interface{}) error {
	encoder := json.NewEncoder(dw.output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (dw *DataWriter) writeYAML(data interface{}) error {
	encoder := yaml.NewEncoder(dw.output)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// writeKeyValueTable writes key-value pairs as an aligned table
func (dw *DataWriter) writeKeyValueTable(title string, keys []string, data map[string]interface{}) error {
	if title != "" {
		_, _ = fmt.Fprintln(dw.output, title)
	}

	w := tabwriter.NewWriter(dw.output, 0, 0, 2, ' ', 0)
	for _, key := range keys {
		if value, exists := data[key]; exists && value != nil && value != "" {
			_, _ = fmt.Fprintf(w, "  %s:\t%v\t\n", key, value)
		}
	}
	return w.Flush()
}

// writeTabularData writes headers and rows as a table
func (dw *DataWriter) writeTabularData(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(dw.output, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t")+"\t")
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}
	return w.Flush()
}

// TableBuilder helps build table data incrementally
type TableBuilder struct {
	headers []string
	rows    [][]string
}

// NewTableBuilder creates a new TableBuilder
func NewTableBuilder(headers ...string) *TableBuilder {
	return &TableBuilder{
		headers: headers,
		rows:    [][]string{},
	}
}

// AddRow adds a row to the table
func (tb *TableBuilder) AddRow(values ...string) *TableBuilder {
	tb.rows = append(tb.rows, values)
	return tb
}

// Write outputs the table using the DataWriter
func (tb *TableBuilder) Write(dw *DataWriter, raw interface{}) error {
	return dw.WriteTable(tb.headers, tb.rows, raw)
}

// KeyValueBuilder helps build key-value data
type KeyValueBuilder struct {
	title string
	keys  []string
	data  map[string]interface{}
}

// NewKeyValueBuilder creates a new KeyValueBuilder
func NewKeyValueBuilder(title string) *KeyValueBuilder {
	return &KeyValueBuilder{
		title: title,
		data:  make(map[string]interface{}),
	}
}

// Add adds a key-value pair
func (kvb *KeyValueBuilder) Add(key string, value interface{}) *KeyValueBuilder {
	if _, ok := kvb.data[key]; !ok {
		kvb.keys = append(kvb.keys, key)
	}
	kvb.data[key] = value
	return kvb
}

// AddIf conditionally adds a key-value pair
func (kvb *KeyValueBuilder) AddIf(condition bool, key string, value interface{}) *KeyValueBuilder {
	if condition {
		kvb.Add(key, value)
	}
	return kvb
}

// Write outputs the key-value data using the DataWriter
func (kvb *KeyValueBuilder) Write(dw *DataWriter) error {
	return dw.WriteKeyValue(kvb.title, kvb.keys, kvb.data)
}
