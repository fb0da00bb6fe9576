// Package layout derives the TRex client directory layout from a root
// directory and turns it into the environment handed to the benchmark.
//
// Given a root R the layout is:
//
//	PYTHONPATH         R/interactive:R/interactive/trex:R/interactive/trex/examples:R/interactive/trex/examples/stl
//	TREX_EXT_LIBS      R/external_libs
//	STL_PROFILES_PATH  R/profiles
//
// Paths are computed unconditionally. Check reports missing directories
// but nothing in this package calls it implicitly.
package layout
