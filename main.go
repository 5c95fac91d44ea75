package main

import "github.com/swisspipe/swisspipe/cmd"

func main() {
	cmd.Execute()
}
