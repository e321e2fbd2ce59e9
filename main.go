package main

import "poi-backend/cmd"

func main() {
	cmd.Run()
}
