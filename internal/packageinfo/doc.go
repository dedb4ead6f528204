// Package packageinfo publishes the metadata consumers need to link against
// a package: the link library names found in its lib directory, the
// package_info.yaml descriptor and generator outputs such as buildinfo.cmake.
package packageinfo
