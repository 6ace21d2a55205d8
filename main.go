package main

import (
	"github.com/cohere-llc/kbase-transfers/cmd"
)

func main() {
	cmd.Execute()
}
