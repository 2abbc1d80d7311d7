package main

import "netsweep/internal/cli"

func main() {
	cli.Execute()
}
