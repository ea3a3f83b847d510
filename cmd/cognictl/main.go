// Command cognictl scores belief maps offline and inspects the kernel
// registry and reflex state of a running deployment's database.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
