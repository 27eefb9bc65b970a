package main

import "github.com/bryanchriswhite/spacebar/cmd/spacebar/commands"

func main() {
	commands.Execute()
}
