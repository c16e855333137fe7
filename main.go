package main

import "github.com/diogo/chatterm/internal/commands"

func main() {
	commands.Execute()
}
