package main

import "ulpclock/host/cmd/ulpclock-host/cmd"

func main() {
	cmd.Execute()
}
