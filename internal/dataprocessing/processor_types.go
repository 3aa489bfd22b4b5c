package dataprocessing

import "runtime"

// ParserOptions configures the record parser
type ParserOptions struct {
	// Workers bounds how many inputs are parsed at once
	Workers int

	// Comma is the field delimiter
	Comma rune
}

// DefaultParserOptions returns default parser options
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		Workers: runtime.NumCPU(),
		Comma:   ',',
	}
}
