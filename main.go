package main

import (
	"os"

	"ddinstall/internal/ddinstall"
)

func main() {
	os.Exit(ddinstall.Main())
}
