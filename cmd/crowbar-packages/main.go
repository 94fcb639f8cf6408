package main

import "crowbar-packages/internal/cli"

func main() {
	cli.Execute()
}
