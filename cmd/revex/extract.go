package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fwojciec/revex"
	"github.com/fwojciec/revex/scrape"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	result, err := deps.Scraper.Scrape(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", revex.ErrorMessage(err))
		return err
	}

	if deps.Results != nil {
		path, err := deps.Results.WriteResult(deps.Ctx, result)
		if err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
		fmt.Fprintf(deps.Stdout, "Wrote %d reviews to %s\n", result.Count, path)
		return nil
	}

	enc := json.NewEncoder(deps.Stdout)
	if c.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

// progressReporter prints one line per extracted page to w.
func progressReporter(w io.Writer) scrape.PageFunc {
	total := 0
	return func(page int, reviews []*revex.Review) {
		total += len(reviews)
		fmt.Fprintf(w, "page %d: %d reviews (%d total)\n", page, len(reviews), total)
	}
}
