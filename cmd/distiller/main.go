package main

import (
	"distiller/internal/cliapp"
	"os"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
