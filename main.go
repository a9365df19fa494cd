package main

import "github.com/pp9653/warera-ranking-sys/cmd"

func main() {
	cmd.Execute()
}
