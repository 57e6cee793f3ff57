// Package main is entrypoint for the application
package main

import (
	"screenshare/cmd"
)

func main() {
	cmd.Run()
}
