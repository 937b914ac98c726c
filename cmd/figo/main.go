// Command figo talks to the figo Connect API from the shell: it runs the OAuth
// login flow, exchanges and revokes tokens, and performs raw REST calls.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
