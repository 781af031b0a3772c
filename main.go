package main

import "testhub/internal/cmd"

func main() {
	cmd.Execute()
}
