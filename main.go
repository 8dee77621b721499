// Package main is the entry point for the deep-cover CLI.
package main

import "github.com/opencollective/deep-cover/cmd"

func main() {
	cmd.Execute()
}
