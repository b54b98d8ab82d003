package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/cugo.go/pkg/bridge"
	fx "github.com/robotalks/cugo.go/pkg/framework"
	env "github.com/robotalks/cugo.go/pkg/l1/env/controller"
)

func init() {
	env.SetupFlags()
	bridge.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	env := env.NewConfig().MustNewEnv()
	b, err := bridge.NewConfig().NewBridge()
	if err != nil {
		glog.Exitf("create bridge: %v", err)
	}
	b.Registrar = env.Events
	glog.Infof("bridge %s serving on %v", env.Config.Info.Ref.Name(), env.RegistryURLs)

	loop := fx.NewLoop().Add(env, b)
	if err := fx.RunAll(context.Background(), loop); err != nil {
		glog.Exitf("bridge stopped: %v", err)
	}
}
