package main

import (
	"github.com/haierkeys/fast-note-local/cmd"
)

func main() {
	cmd.Execute()
}
