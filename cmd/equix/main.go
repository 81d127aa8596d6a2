// Command equix mines, solves and verifies equix proofs of work and serves
// verification over REST and gRPC.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"equix/internal/config"
	"equix/internal/logutil"
)

var log = logrus.WithField("prefix", "main")

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a YAML config file",
		EnvVars: []string{"EQUIX_CONFIG"},
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info, warn, error)",
	}
	logFormatFlag = &cli.StringFlag{
		Name:  "log-format",
		Usage: "Log format: text, json or fluentd",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Also append logs to this file",
	}
	oracleFlag = &cli.StringFlag{
		Name:  "oracle",
		Usage: "Oracle method, overrides the configured preference order",
	}
	seedFlag = &cli.StringFlag{
		Name:  "seed",
		Usage: "Hex encoded 32-byte seed",
	}
	nonceFlag = &cli.Uint64Flag{
		Name:  "nonce",
		Usage: "Challenge nonce",
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := &cli.App{}
	app.Name = "equix"
	app.Usage = "Solve and verify equix proofs of work"
	app.Flags = []cli.Flag{configFlag, verbosityFlag, logFormatFlag, logFileFlag, oracleFlag}
	app.Before = before
	app.Commands = []*cli.Command{
		mineCommand,
		solveCommand,
		verifyCommand,
		difficultyCommand,
		serveCommand,
		oraclesCommand,
	}
	return app
}

// before resolves the configuration once and applies global flags on top
func before(c *cli.Context) error {
	cfg, err := config.Resolve(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	if c.IsSet(verbosityFlag.Name) {
		cfg.Log.Level = c.String(verbosityFlag.Name)
	}
	if c.IsSet(logFormatFlag.Name) {
		cfg.Log.Format = c.String(logFormatFlag.Name)
	}
	if c.IsSet(logFileFlag.Name) {
		cfg.Log.File = c.String(logFileFlag.Name)
	}
	if c.IsSet(oracleFlag.Name) {
		cfg.Oracle.PreferredOrder = []string{c.String(oracleFlag.Name)}
		cfg.Oracle.EnableFallback = false
	}
	if err := logutil.Configure(cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err != nil {
		return err
	}
	logrus.AddHook(logutil.NewCollector())

	c.App.Metadata = map[string]interface{}{"config": cfg}
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata["config"].(*config.Config)
}
