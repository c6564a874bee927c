package main

import "github.com/jimdaga/autoposter/internal/cmd"

func main() {
	cmd.Execute()
}
