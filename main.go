package main

import "driveauth/cmd"

func main() {
	cmd.Execute()
}
