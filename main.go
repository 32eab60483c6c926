package main

import (
	"fmt"

	"github.com/armlab/door-rl-testing/benchmarks/cmd"
	"github.com/joho/godotenv"
)

// main entry point to all the experiments
func main() {
	// optional .env with e.g. DOOR_SCENE pointing at a local scene file
	godotenv.Load()

	rootCommand := cmd.RootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
	}
}
