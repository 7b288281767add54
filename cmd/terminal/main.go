package main

import "github.com/rustyeddy/terminal/internal/cli"

func main() {
	cli.Execute()
}
