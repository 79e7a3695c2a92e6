// Package fetch retrieves STAC item documents under bounded concurrency.
//
// A Fetcher retrieves and parses a single item document, classifying
// failures as transient (retried) or permanent (failed immediately).
// A Scheduler runs a month's worth of per-day link lists through a
// Fetcher with two-level admission control: at most maxDays days in
// flight, and within each day at most maxPerDay concurrent fetches, so
// total in-flight requests never exceed maxDays * maxPerDay.
package fetch
