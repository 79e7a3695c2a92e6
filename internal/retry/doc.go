// Package retry provides a bounded retry policy with exponential backoff.
//
// A Policy bundles the attempt ceiling, backoff curve, and the predicate
// deciding which errors are worth retrying. Callers run an operation with
// [Policy.Do] and get back the error of the final attempt plus the number
// of attempts made, so outcome records can report how hard a fetch was
// tried.
//
// The sleep function is injectable, which lets tests drive the policy with
// a fake clock instead of waiting out real backoff.
package retry
