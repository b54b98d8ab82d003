package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/l0/comm"
	"github.com/robotalks/cugo.go/pkg/sim/mcu"
)

func init() {
	mcu.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := mcu.NewConfig()
	t, err := comm.Open(conf.Transport)
	if err != nil {
		glog.Exitf("open transport: %v", err)
	}
	defer t.Close()

	m := conf.NewMCU()
	glog.Infof("simulating MCU on %s transport", conf.Transport.Kind)
	err = fx.RunAll(context.Background(), fx.RunnableFunc(func(ctx context.Context) error {
		return m.Run(ctx, t, conf.StopAfter)
	}))
	if err != nil {
		glog.Exitf("simulator stopped: %v", err)
	}
}
