package main

import "southwinds.dev/notesafe/cli/cmd"

func main() {
	cmd.Execute()
}
