package main

import (
	"github.com/tsugiapp/tsugi/cmd"
)

func main() {
	cmd.Execute()
}
