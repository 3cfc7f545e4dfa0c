package main

import (
	"os"

	"github.com/fjtyk95/bankoptimize/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
