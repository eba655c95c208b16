package main

import (
	"os"

	"github.com/iov-one/htlc/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
