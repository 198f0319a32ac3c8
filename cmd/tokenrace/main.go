package main

import (
	"github.com/tokenrace/tokenrace/internal/cli"
)

func main() {
	cli.Execute()
}
