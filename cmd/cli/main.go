package main

import "onlibry/cmd/cli/command"

func main() {
	command.Execute()
}
