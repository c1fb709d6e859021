// v2gsimctl -- CLI client for the v2gsimd session introspection endpoint.
package main

import "github.com/dantte-lp/v2gsim/cmd/v2gsimctl/commands"

func main() {
	commands.Execute()
}
