package main

import "github.com/jsphweid/chordpad/cmd"

func main() {
	cmd.Execute()
}
