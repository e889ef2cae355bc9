// Command sharedso builds the LD_PRELOAD interposer as a C shared object:
//
//	go build -buildmode=c-shared -o shared.so ./cmd/sharedso
//
// The actual interposition logic lives in interpose.c, compiled by cgo as
// part of this package. LD_PRELOAD symbol interposition is a C-ABI
// mechanism — a Go function cannot itself stand in for libc's malloc
// without risking recursion into the Go runtime's own allocator — so this
// is the one package in the module written in C rather than Go. Nothing
// here runs through Go's own runtime startup path: the interposer's
// behavior is driven entirely by interpose.c's constructor attribute, which
// fires at dynamic-link time before the target's main.
package main

/*
#include "interpose.h"
*/
import "C"

func main() {}
