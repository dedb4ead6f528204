// Package errors provides the classified error primitives used across recipebuilder.
//
// Every failure a recipe run can surface is a ClassifiedError carrying a
// category, a severity and structured context. The three recipe failure kinds
// have dedicated constructors:
//
//   - FetchError: the source clone failed (bad URL, network, auth).
//   - BuildError: the install or test command exited non-zero.
//   - PackagingWarning: a copy rule matched no files; non-fatal.
//
// Example usage:
//
//	err := errors.FetchError("clone failed").
//		WithContext("url", repoURL).
//		WithCause(originalErr).
//		Build()
package errors
