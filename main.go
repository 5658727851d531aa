package main

import (
	_ "time/tzdata"

	"github.com/frahmantamala/leave-management/cmd"
)

func main() {
	cmd.Execute()
}
