package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/NerdMeNot/skiff"
	"github.com/NerdMeNot/skiff/internal/config"
)

// readTable loads a file by its extension
func readTable(path string, cfg *config.Config) (*skiff.DataFrame, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return skiff.ReadCSV(path, cfg.CSVReadOptions())
	case ".tsv":
		opts := cfg.CSVReadOptions()
		opts.Delimiter = '\t'
		return skiff.ReadCSV(path, opts)
	case ".json":
		return skiff.ReadJSON(path)
	case ".parquet", ".pq":
		return skiff.ReadParquet(path)
	default:
		return nil, fmt.Errorf("unsupported input format %q", ext)
	}
}

// writeTable renders df as a table, CSV or JSON records
func writeTable(w io.Writer, df *skiff.DataFrame, format string) error {
	switch format {
	case "table":
		_, err := fmt.Fprintln(w, skiff.StringWithConfig(df, skiff.GetDisplayConfig()))
		return err
	case "csv":
		return df.WriteCSVToWriter(w)
	case "json":
		opts := skiff.DefaultJSONWriteOptions()
		opts.Indent = "  "
		return df.WriteJSONToWriter(w, opts)
	default:
		return fmt.Errorf("unknown output format %q (want table, csv or json)", format)
	}
}
