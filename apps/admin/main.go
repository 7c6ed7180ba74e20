package main

import (
	"log"
	"os"

	"github.com/csamedu/portal/core"
	"github.com/csamedu/portal/core/schoolapi"

	logsvc "github.com/csamedu/portal/services/logger"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	api := schoolapi.NewClient(conf, logsvc.NewConsoleLogger(logger))

	cli := commandLine{
		conf: conf,
		api:  api,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
