// Package packaging copies build artifacts from a source tree into the
// standard package layout.
//
// Packaging is driven by a declarative rule table: each Rule names a glob
// pattern relative to the source root, a destination directory, whether the
// matched relative path is kept or flattened, and optional exclusions. The
// default table places headers under include/, static and dynamic libraries
// under lib/, Windows runtime DLLs under bin/ and test executables under
// unittest/.
//
// A rule that matches nothing is not an error. The Copier records a
// packaging warning for it and moves on; callers decide whether warnings are
// fatal.
package packaging
