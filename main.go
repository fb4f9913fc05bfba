package main

import "github.com/fakeyudi/chronogen/cmd"

func main() {
	cmd.Execute()
}
