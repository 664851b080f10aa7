// Package internal holds values shared by the photochain executables.
package internal

// Version is the release version of the photochain tools.
const Version = "0.1.0"
