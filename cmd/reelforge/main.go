package main

import "github.com/forPelevin/reelforge/internal/cli"

func main() {
	cli.Main()
}
