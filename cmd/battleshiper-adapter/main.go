package main

import "github.com/oshokin/battleshiper-adapter/cmd/battleshiper-adapter/cmd"

func main() {
	cmd.Execute()
}
