package main

import "github.com/rollcall-dev/rollcall/cmd"

func main() {
	cmd.Execute()
}
