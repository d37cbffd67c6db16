package main

import "github.com/set-night/mindchat/internal/cli"

func main() {
	cli.Execute()
}
