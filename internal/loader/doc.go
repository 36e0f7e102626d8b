// Package loader reads rating export files into a domain.Table.
//
// Delimited files are decoded as UTF-8 (a leading BOM is dropped) and retried
// once as GBK when the bytes are not valid UTF-8. Excel workbooks are read
// with excelize from the first sheet holding data. The first non-blank row is
// the header.
package loader
