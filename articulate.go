package main

import (
	cli "articulate/cmd/articulate"
)

func main() {
	cli.Execute()
}
