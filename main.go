package main

import "github.com/Shu-50/backend-CampusCrush/cmd"

func main() {
	cmd.Run()
}
