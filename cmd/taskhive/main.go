package main

import "github.com/taskhive/taskhive/cmd/taskhive/commands"

func main() {
	commands.Execute()
}
