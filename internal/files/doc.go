// Package files finds rating exports on disk.
//
// Discovery lists supported inputs (.csv, .txt, .xlsx, .xlsm) in a
// directory and resolves a directory argument to its newest export:
//
//	d := files.NewDiscovery(baseDir)
//	input, err := d.ResolveInput("downloads")
package files
