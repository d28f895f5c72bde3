package main

import (
	_ "time/tzdata"

	"github.com/vibast-solutions/ms-go-reservations/cmd"
)

func main() {
	cmd.Execute()
}
