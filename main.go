package main

import "github.com/notargets/gosvps/cmd"

func main() {
	cmd.Execute()
}
