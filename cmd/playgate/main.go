package main

import "github.com/mcoot/playgate/internal/cli"

func main() {
	cli.Execute()
}
