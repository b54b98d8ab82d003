package main

import (
	"github.com/robotalks/cugo.go/pkg/cli/sh"
	env "github.com/robotalks/cugo.go/pkg/l1/env/connector"

	_ "github.com/robotalks/cugo.go/pkg/cli/cmds/drive"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
