package main

import "github.com/Garogaro1/ticktick-clone-sub000/internal/cli"

func main() {
	cli.Execute()
}
