package main

import (
	"muninn/cmd"
)

func main() {
	cmd.Execute()
}
