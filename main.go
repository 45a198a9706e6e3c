package main

import "github.com/ridoystarlord/inheritview/cmd"

// Set via -ldflags at build time
var version = "dev"

func main() {
	cmd.Execute(version)
}
