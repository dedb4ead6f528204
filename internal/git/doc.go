// Package git fetches recipe sources with go-git.
//
// The fetch phase is a single clone into the workspace source folder:
//   - any existing checkout is removed first
//   - optional branch, shallow depth and authentication (SSH, token, basic)
//   - failures are classified as fetch errors wrapping typed causes
//
// Clones are never retried; the invoking process decides what to do with a
// failed fetch.
package git
