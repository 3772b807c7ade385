// Package loader reads trigger tables and segment lists from disk and
// writes result tables back out.
//
// Two table formats are supported: whitespace-separated ASCII and CSV.
// A loader is constructed per source via New, which dispatches on the
// configured format. LoadAuxDir scans a directory of tables, deriving
// each channel name from its file name.
package loader
