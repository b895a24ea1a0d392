package main

import "github.com/YuminosukeSato/scigo-housing/cmd/housing/cmd"

func main() {
	cmd.Execute()
}
