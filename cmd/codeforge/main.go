package main

import "github.com/codeforge-ai/codeforge/internal/cli"

func main() {
	cli.Execute()
}
