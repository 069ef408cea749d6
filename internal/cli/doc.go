// Package cli is responsible for parsing command-line arguments, validating
// user input, and mapping failures to process exit codes. It merges flags
// over the optional configuration file.
package cli
