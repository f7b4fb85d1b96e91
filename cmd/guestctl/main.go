// Command guestctl runs operational tasks against a guestlist deployment:
// schema migrations and organizer password hashing.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
