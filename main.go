package main

import "github.com/theirongolddev/cashflowcast/cmd"

func main() {
	cmd.Execute()
}
