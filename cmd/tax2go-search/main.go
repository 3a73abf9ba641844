// Package main provides the entry point for the tax2go-search service.
package main

import (
	"os"

	"github.com/shaond/tax2go-search/cmd/tax2go-search/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
