package main

import "github.com/lepinkainen/openshelf/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
