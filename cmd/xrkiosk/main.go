package main

import "github.com/mcoot/xrkiosk/internal/cli"

func main() {
	cli.Execute()
}
