// Package recipe holds the package descriptor: what is built, where it comes
// from, which dependency references it declares and how its artifacts are
// laid out. It also resolves the settings tuple and options supplied by the
// invoker and derives the package ID from them.
package recipe
