// Package pipeline implements the package recipe runner: it fetches a
// recipe's source, builds it, collects the artifacts into a package folder
// and publishes the package info consumers link against.
//
// The four phases always execute in the order fetch, build, package,
// publish. A Runner may execute a contiguous tail of that order (for example
// build+package+publish against an earlier fetch) but never skips ahead or
// goes back. Every phase is logged, timed, journaled and counted.
package pipeline
