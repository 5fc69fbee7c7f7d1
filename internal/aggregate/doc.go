// Package aggregate merges paginated log rows from several files into one
// timestamp-ordered view.
//
// A Session owns the view state: selected ids, filter, merged rows and one
// Cursor per file. Every state change happens through three calls:
//
//	req := session.Begin(ids, filter)   // new selection or explicit re-query
//	batch := fetcher.Fetch(ctx, req)    // network work, safe off the UI loop
//	session.Apply(batch)                // merge, re-sort, advance cursors
//
// and, for incremental loading, session.More() to request the next page of
// every file that still has one. More refuses while a fetch is in flight,
// so requests never overlap.
//
// Each Begin bumps a generation counter carried by the Request and its
// Batch. Apply drops batches from an older generation, which is how a
// response for a superseded selection is kept out of the view.
//
// Only files whose status is PARSED are fetched. Others are reported in
// Batch.Skipped; a failed status lookup counts as UNKNOWN.
package aggregate
