package company

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVHeader is the column order of exported files.
var CSVHeader = []string{"Name", "City", "Founding Date", "Status", "Registration Number", "UUID"}

// WriteCSV writes records with a header row. Missing fields become empty cells.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, r := range records {
		row := []string{
			Value(r.Name),
			Value(r.City),
			Value(r.FoundingDate),
			Value(r.Status),
			Value(r.RegistrationNumber),
			Value(r.UUID),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ExportFilename builds the download name for a search, e.g.
// recent_companies_DE_2024-01-01_2024-01-31.csv. An empty to is dropped.
func ExportFilename(country, from, to string) string {
	if to == "" {
		return fmt.Sprintf("recent_companies_%s_%s.csv", country, from)
	}
	return fmt.Sprintf("recent_companies_%s_%s_%s.csv", country, from, to)
}
