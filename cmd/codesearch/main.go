package main

import "github.com/mvp-joe/cortex-codesearch/internal/cli"

func main() {
	cli.Execute()
}
