// Package cli implements the imgbuild command line.
//
// Global flags:
//
//	-f, --file      Build file to load.
//	-v, --verbose   Enable debug output.
//	-q, --quiet     Only print warnings and errors.
//	    --docker    Docker binary to invoke (IMGBUILD_DOCKER).
//
// Commands are build, plan, compare, sort and version. Errors are mapped to
// process exit codes by ExitCode.
package cli
