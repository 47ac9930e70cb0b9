package main

import "github.com/callscope/callscope/cmd"

func main() {
	cmd.Execute()
}
