package main

import (
	"os"

	lvapp "github.com/warptools/ledgerview/app"
)

func main() {
	lvapp.App.Reader = os.Stdin
	lvapp.App.Writer = os.Stdout
	lvapp.App.ErrWriter = os.Stderr
	if err := lvapp.App.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
