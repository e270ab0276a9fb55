// Package allocation implements single-use resource pools backed by directories.
//
// A pool is an "incoming" directory of JSON files. Allocating takes exactly one
// file out of the pool: its contents are parsed and returned, and the file is
// renamed into an "allocated" directory where it stays as a record of the
// consumption. Once a pool is empty every further allocation reports
// *PoolExhaustedError.
//
// Listing, selection and the move happen under one mutex per incoming
// directory, so concurrent callers never receive the same file and no file is
// lost. Selection order follows the sorted directory listing; callers must not
// rely on which file comes first, only that each is handed out once.
package allocation
