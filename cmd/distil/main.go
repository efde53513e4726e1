package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/doclib/distil/internal/cliui"
)

func main() {
	var ui ui
	ui.args = []string{filepath.Base(os.Args[0])}

	if err := cliui.CLIRequest().Serve(os.Stdout, &ui); err != nil {
		log.Fatalln(err)
	}
}
