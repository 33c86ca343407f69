package main

import "github.com/josephlewis42/magish/cmd"

func main() {
	cmd.Execute()
}
