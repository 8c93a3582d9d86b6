package main

import (
	"github.com/dmaitland/salespipe/cmd"
)

func main() {
	cmd.Execute()
}
