// Command forkfuzz is the fuzzer's entrypoint: parse flags, run one
// session, exit with the code the session produced.
package main

import (
	"fmt"
	"os"

	"github.com/lz0104132490/forkfuzz/internal/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cmd.ExitCode(err))
}
