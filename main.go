package main

import "github.com/talentline/apiserver/cmd"

func main() {
	cmd.Execute()
}
