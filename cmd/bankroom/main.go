package main

import (
	"bankroom/internal/cli"
)

func main() {
	cli.Execute()
}
