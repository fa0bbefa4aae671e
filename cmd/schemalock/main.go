package main

import "github.com/KaramelBytes/schemalock-cli/cmd"

func main() {
	cmd.Execute()
}
