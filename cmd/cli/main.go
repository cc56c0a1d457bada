package main

import "github.com/popcornlabs/popcorn-resolver/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
