package main

import "github.com/vidalevel/habits/cmd"

func main() {
	cmd.Execute()
}
