package main

import "hbnb-api/cmd"

func main() {
	cmd.Run()
}
