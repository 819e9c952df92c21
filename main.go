package main

import (
	"os"

	"bangd/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
