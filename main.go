package main

import "github.com/stackward/esretire/cmd"

func main() {
	cmd.Execute()
}
