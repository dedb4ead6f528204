// Package workspace manages the working directory of a recipe run, supporting
// both ephemeral (timestamped) and persistent (fixed-path) modes.
//
// Persistent mode keeps the clone, the packages and the run journal between
// invocations, which lets `build` and `package` continue from an earlier
// `source`. Ephemeral mode creates recipebuilder-<timestamp>-<suffix> below
// the base directory and removes it on Cleanup.
//
// Layout:
//
//	<workspace>/source/<name>        cloned sources
//	<workspace>/package/<package_id> packaged artifacts and metadata
//	<workspace>/journal.db           run journal
package workspace
