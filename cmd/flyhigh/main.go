package main

import (
	"flyhigh/cmd/flyhigh/cmd"

	_ "time/tzdata"
)

func main() {
	cmd.Execute()
}
