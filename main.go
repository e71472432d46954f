package main

import (
	"os"

	"github.com/anu-justdidit/airline-dash-app/src/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
