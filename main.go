package main

import "narration-tuner/cmd"

func main() {
	cmd.Execute()
}
