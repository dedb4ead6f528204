// Package build runs a recipe's build commands (install, then tests) inside
// the cloned source tree.
//
// Commands run sequentially as child processes bound to the caller's
// context. The first failing command stops the phase and is reported as a
// classified build error carrying the command line, its exit code and the
// tail of its combined output.
package build
