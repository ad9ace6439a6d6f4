package main

import "github.com/mhon-emma/Impact-Venture/cmd"

func main() {
	cmd.Execute()
}
