package main

import "github.com/comate/comate/internal/cli"

func main() {
	cli.Execute()
}
