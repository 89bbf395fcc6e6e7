package main

import "github.com/theirongolddev/sessionlens/cmd"

func main() {
	cmd.Execute()
}
