package main

import "github.com/mcoot/threestones/internal/cli"

func main() {
	cli.Execute()
}
