package main

import (
	"context"
	"flag"
	"os"

	"github.com/ryogrid/samehada-executor/common"
)

// runs a scenario file, which defines relations and queries, and prints the result rows.
// this entry point is used for trying the executor by hand
func main() {
	configPath := flag.String("config", "", "executor config file (TOML). defaults are used when empty")
	scenarioPath := flag.String("scenario", "main/scenario.toml", "scenario file (TOML)")
	flag.Parse()

	config := common.DefaultConfig()
	if *configPath != "" {
		var err error
		if config, err = common.LoadConfig(*configPath); err != nil {
			common.ShPrintf(common.FATAL, "%+v\n", err)
			os.Exit(1)
		}
	}
	if err := config.ApplyLogKinds(); err != nil {
		common.ShPrintf(common.FATAL, "%+v\n", err)
		os.Exit(1)
	}

	sc, err := loadScenario(*scenarioPath)
	if err == nil {
		err = newScenarioRunner(config, os.Stdout).run(context.Background(), sc)
	}
	if err != nil {
		common.ShPrintf(common.ERROR, "%+v\n", err)
		os.Exit(1)
	}
}
