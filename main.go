// The main package for the refharvest executable.
package main

import (
	"os"

	"github.com/litstack/refharvest/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
