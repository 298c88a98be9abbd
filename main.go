package main

import "github.com/agentic-research/confedit/cmd"

func main() {
	cmd.Execute()
}
