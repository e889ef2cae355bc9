// Command target is a pure-Go stand-in for testdata/target.c, for running
// the forkserver driver's tests in environments without a C toolchain. Go's
// memory safety means it cannot reproduce the C target's actual null-deref
// and stack-smash bugs, so it raises the same two signals (SIGSEGV,
// SIGABRT) deliberately instead, which is all the driver's classification
// path actually observes.
package main

import (
	"bufio"
	"os"
	"strings"
	"syscall"
)

func main() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 4096), 4096)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.Contains(line, "CRASH") {
			_ = syscall.Kill(os.Getpid(), syscall.SIGSEGV)
		}
		if len(line) > 100 {
			_ = syscall.Kill(os.Getpid(), syscall.SIGABRT)
		}
	}
}
