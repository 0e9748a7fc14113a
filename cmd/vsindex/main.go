package main

import "github.com/forPelevin/vsindex/internal/cli"

func main() {
	cli.Main()
}
