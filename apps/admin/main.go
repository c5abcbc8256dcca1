package main

import (
	"log"
	"os"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/services/backend"
	logsvc "github.com/trezcool/tutordesk/services/logger"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(false)

	// start CLI
	cli := commandLine{
		conf:    conf,
		backend: backend.NewClient(conf.Backend, logger),
		logger:  logger,
		out:     os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
