package main

import "github.com/brogergvhs/mangasee/cmd"

func main() {
	cmd.Execute()
}
