package main

import "github.com/chukul/eventsctl/cmd"

func main() {
	cmd.Execute()
}
