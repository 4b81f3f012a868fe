package main

import "github.com/wordzap/aipack/cmd"

func main() {
	cmd.Execute()
}
