package main

import "github.com/ai4pkm/orchestrator/cmd"

func main() {
	cmd.Execute()
}
