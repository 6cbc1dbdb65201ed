package main

import "github.com/mvp-joe/crate-digest/internal/cli"

func main() {
	cli.Execute()
}
