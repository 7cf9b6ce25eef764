package main

import (
	"os"

	"github.com/gnolang/tagmig/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
