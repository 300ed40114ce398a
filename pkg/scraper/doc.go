// Package scraper drives a run: it loads the saved collection, pages
// backwards through the account's timeline until nothing new comes back,
// and writes the reconciled collection.
//
// Pagination uses the oldest id of each page as the next max_id and the
// newest saved id as since_id. It stops on an empty page, when a page does
// not move the oldest id, or on the first failed request. Failures are not
// retried; whatever was fetched before the failure is still merged and
// saved.
//
// Usage:
//
//	s, err := scraper.New(cfg, client, store, exporter, ui.NewPrinter(os.Stdout, false))
//	if err != nil {
//	    return err
//	}
//	result, err := s.Run(ctx)
package scraper
