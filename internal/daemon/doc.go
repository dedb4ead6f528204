// Package daemon keeps recipebuilder running in the foreground and triggers
// full recipe runs, either when the recipe file changes (Watcher) or on a
// fixed interval (Scheduler).
//
// Both triggers funnel through a Serial so that at most one run is active
// at any time.
package daemon
