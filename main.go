package main

import "github.com/frahmantamala/access-approval/cmd"

func main() {
	cmd.Execute()
}
