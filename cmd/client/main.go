package main

import "payfamily/cmd/client/cmd"

func main() {
	cmd.Execute()
}
