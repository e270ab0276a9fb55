// Package cli implements the cdimock command line: the serve command that runs
// the stub server, plus fixture and certificate maintenance commands.
package cli
