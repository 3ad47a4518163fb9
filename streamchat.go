package main

import (
	"fmt"
	"os"

	log "github.com/Lafeng/streamchat/glog"
	"github.com/urfave/cli/v2"
)

func main() {
	// -v is the log verbosity
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:    app_name,
		Usage:   "encrypted peer-to-peer chat over a raw stream",
		Version: versionString(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "indicate config if in nontypical path",
				Destination: &context.configFile,
			},
			&cli.IntFlag{
				Name:        "v",
				Usage:       "verbose log level",
				Destination: &context.vFlag,
			},
			&cli.StringFlag{
				Name:        "logdir",
				Usage:       "if non-empty will write log into the directory",
				Destination: &context.logdir,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "dump every frame and error stacks",
				Destination: &context.debug,
			},
			&cli.BoolFlag{
				Name:        "trace",
				Usage:       "show key exchange and cipher traces (default from config: true)",
				Destination: &context.trace,
			},
			&cli.BoolFlag{
				Name:        "kcp",
				Usage:       "carry the chat over KCP instead of TCP",
				Destination: &context.useKcp,
			},
		},
		Before: context.initialize,
		Commands: []*cli.Command{
			{
				Name:      "server",
				Usage:     "wait for exactly one peer on the port",
				ArgsUsage: "<port>",
				Action:    context.serverCommandHandler,
			},
			{
				Name:      "client",
				Usage:     "connect to a waiting peer",
				ArgsUsage: "<host> <port>",
				Action:    context.clientCommandHandler,
			},
			{
				Name:  "config",
				Usage: "create a config template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output file, stdout if omitted",
					},
				},
				Action: context.configCommandHandler,
			},
			{
				Name:      "keystream",
				Usage:     "print the first keystream bytes of a seed",
				ArgsUsage: "<seed> [count [offset]]",
				Action:    context.keystreamCommandHandler,
			},
		},
	}

	err := app.Run(os.Args)
	log.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
