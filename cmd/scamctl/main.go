// Command scamctl is the operator CLI: it runs the trust engine offline
// and performs maintenance against a Scamwatch SQLite database.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
