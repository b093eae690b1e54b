package main

import "github.com/ravenkeep/townsquare/internal/cli"

func main() {
	cli.Execute()
}
