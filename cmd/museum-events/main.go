package main

import "github.com/pfrederiksen/museum-events/internal/cli"

func main() {
	cli.Execute()
}
