package main

import (
	"github.com/CinnamonNinian/cloudsim-eec/cmd"
)

func main() {
	cmd.Execute()
}
