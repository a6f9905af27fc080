package main

import "github.com/meridies/eventbid/cmd"

func main() {
	cmd.Execute()
}
