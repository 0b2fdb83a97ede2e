package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/registry-dashboard/pkg/company"
	"github.com/Sternrassler/registry-dashboard/pkg/dashboard"
	"github.com/Sternrassler/registry-dashboard/pkg/query"
)

type exportOptions struct {
	country string
	from    string
	to      string
	limit   int
	out     string
}

func newExportCmd() *cobra.Command {
	today := time.Now()
	opts := exportOptions{
		country: query.DefaultCountry,
		from:    today.AddDate(0, 0, -dashboard.DefaultWindowDays).Format(query.DateLayout),
		to:      today.Format(query.DateLayout),
		limit:   query.DefaultLimit,
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch companies and write them to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.country, "country", opts.country, "country code (e.g. DE, AT, CH)")
	flags.StringVar(&opts.from, "from", opts.from, "earliest founding date (YYYY-MM-DD)")
	flags.StringVar(&opts.to, "to", opts.to, "latest founding date (YYYY-MM-DD); empty for open-ended")
	flags.IntVar(&opts.limit, "limit", opts.limit, fmt.Sprintf("number of companies (1-%d)", query.MaxLimit))
	flags.StringVarP(&opts.out, "out", "o", "", "output file (default recent_companies_<country>_<from>_<to>.csv)")
	return cmd
}

func runExport(ctx context.Context, opts exportOptions) error {
	// Reject bad input before touching config or the network.
	filter, err := query.Parse(query.Params{
		Country: opts.country,
		From:    opts.from,
		To:      opts.to,
		Limit:   fmt.Sprint(opts.limit),
	})
	if err != nil {
		return err
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cred, err := a.credentials.Credential(ctx)
	if err != nil {
		return err
	}

	records, err := a.aggregator.Collect(ctx, cred, filter)
	if err != nil {
		return err
	}
	company.SortByFoundingDateDesc(records)

	out := opts.out
	if out == "" {
		out = company.ExportFilename(filter.Country, filter.FromString(), filter.ToString())
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := company.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}

	log.Info().
		Str("file", out).
		Int("records", len(records)).
		Msg("Export written")
	return nil
}
