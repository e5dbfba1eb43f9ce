package main

import "yqhp/robot-fleet/cmd"

func main() {
	cmd.Execute()
}
