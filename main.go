package main

import (
	"os"

	"github.com/secgate-io/secgate/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
