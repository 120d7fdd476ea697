// Command greeni runs the children's companion backend.
//
//	greeni serve --config greeni.yaml
//	greeni config validate --config greeni.yaml
//	greeni version
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
