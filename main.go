package main

import "github.com/sketchgen-build/sketchgen/cmd"

func main() {
	cmd.Execute()
}
