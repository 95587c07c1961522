package main

import (
	"flag"
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/sparkdeploy/spark/app"
	"github.com/sparkdeploy/spark/cmd/sparkd/config"
	"github.com/sparkdeploy/spark/discovery"
	"github.com/sparkdeploy/spark/gateway"
	"github.com/sparkdeploy/spark/log"
)

var (
	// Version control for sparkd
	Version = "0.0.1-dev"
)

func main() {
	configPath := flag.String("config", "", "config file")
	showVerbose := flag.Bool("verbose", false, "show verbose debug log")
	showHelp := flag.Bool("help", false, "show help message")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showHelp {
		flag.Usage()
		return
	}
	if *showVersion {
		fmt.Printf("sparkd %s\n", Version)
		return
	}

	conf, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	if *showVerbose {
		conf.Log.AccessLevel = "debug"
		conf.Log.ErrorLevel = "debug"
	}

	err = log.InitLog(&conf.Log)
	if err != nil {
		panic(err)
	}

	if conf.Core.AppsDir != "" {
		os.Setenv(app.EnvAppsDir, conf.Core.AppsDir)
	}

	log.LogAccess.Infof("sparkd %s starting, apps dir %s", Version, app.AppsDir())

	routes := gateway.NewRoutes()

	var g errgroup.Group
	g.Go(func() error {
		return RunDeployServer(conf.Core.Address, conf.Core.Port, routes)
	})
	if conf.Gateway.Enabled {
		g.Go(func() error {
			addr := fmt.Sprintf("%s:%d", conf.Gateway.Address, conf.Gateway.Port)
			return gateway.Run(routes, addr)
		})
	}
	if conf.Discovery.Enabled {
		g.Go(func() error {
			return discovery.RunServer(conf.Discovery.Port)
		})
	}

	if err := g.Wait(); err != nil {
		log.LogError.Errorf("daemon crashed: %v", err)
		os.Exit(1)
	}
}
