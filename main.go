package main

import "automatron/cmd"

func main() {
	cmd.Execute()
}
