package main

import "github.com/quantfold/backsim/internal/cli"

func main() {
	cli.Execute()
}
