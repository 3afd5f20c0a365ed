package main

import "github.com/frahmantamala/rogue-contacts/cmd"

func main() {
	cmd.Execute()
}
