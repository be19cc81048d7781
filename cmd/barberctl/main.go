package main

import (
	_ "time/tzdata"

	"github.com/BruksfildServices01/barber-manager/cmd/barberctl/commands"
)

func main() {
	commands.Execute()
}
