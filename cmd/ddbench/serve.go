package main

import (
	"context"
	"fmt"
	"os"

	"github.com/oklog/run"
	"github.com/oqtopus-team/ddbench/router"
	"go.uber.org/zap"
)

type serveCmd struct{}

func newServeCmd() *serveCmd {
	return &serveCmd{}
}

func (c *serveCmd) Execute(args []string) error {
	logger := setZap(ddbench.Conf)
	defer logger.Sync()

	comps, err := setupComponents(ddbench.Conf)
	if err != nil {
		return err
	}
	defer comps.TearDown()

	server := &router.SamplerGRPCServer{}
	if err := server.Setup(comps.setting.Router, comps.backend); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var g run.Group
	g.Add(server.Wait, func(error) {
		server.TearDown()
	})
	addSignalHandler(ctx, &g)
	if err := g.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "execution error:%v\n", err)
	}
	zap.L().Info("sampler service stopped")
	return nil
}
