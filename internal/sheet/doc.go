// Package sheet provides access to the signup row source.
//
// The row source is a two-dimensional text grid. Row 1 holds the headers and
// every following row is one signup. Rows are identified by position only:
// the first data row is sheet row 2.
//
// Three sources are provided:
//   - GoogleSheet: a tab of a Google spreadsheet (the production source)
//   - CSVFile: a local CSV export, rewritten atomically on every write
//   - Memory: an in-memory grid for tests and dry runs
//
// Column discovery (DiscoverColumns) is the only place header names are
// interpreted. Its result is a value threaded explicitly into row
// processing; there is no package-level column state.
package sheet
