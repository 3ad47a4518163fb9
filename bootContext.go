package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/Lafeng/streamchat/crypto"
	ex "github.com/Lafeng/streamchat/exception"
	log "github.com/Lafeng/streamchat/glog"
	. "github.com/Lafeng/streamchat/tunnel"
	"github.com/urfave/cli/v2"
)

var (
	context = &bootContext{}
	sigChan = make(chan os.Signal, 1)
)

type Component interface {
	Stats() string
	Close()
}

type bootContext struct {
	configFile     string
	logdir         string
	debug          bool
	trace          bool
	useKcp         bool
	vSpecified     bool
	traceSpecified bool
	vFlag          int
	cman           *ConfigContext
	lock           sync.Mutex
	components     []Component
	closeable      []io.Closer
}

// global before handler
func (ctx *bootContext) initialize(c *cli.Context) (err error) {
	// inject parameters into package.tunnel
	VER_STRING = versionString()
	DEBUG = ctx.debug
	// inject parameters into package.exception
	ex.DEBUG = ctx.debug
	// glog
	ctx.vSpecified = c.IsSet("v")
	ctx.traceSpecified = c.IsSet("trace")
	log.SetLogOutput(ctx.logdir)
	log.SetLogVerbose(ctx.vFlag)
	return nil
}

func (ctx *bootContext) initConfig() {
	var err error
	// load config file, or defaults
	ctx.cman, err = NewConfigContextFromFile(ctx.configFile)
	fatalError(err)
	// command line takes precedence
	if ctx.vSpecified {
		ctx.cman.SetVerbose(ctx.vFlag)
	} else {
		log.SetLogVerbose(ctx.cman.LogV())
	}
	if ctx.traceSpecified {
		ctx.cman.SetTrace(ctx.trace)
	}
	if ctx.useKcp {
		ctx.cman.UseKcp()
	}
}

// ./streamchat server PORT
func (ctx *bootContext) serverCommandHandler(c *cli.Context) error {
	if c.Args().Len() != 1 {
		fatalAndCommandHelp(c)
	}
	port := parsePort(c.Args().Get(0))
	ctx.initConfig()
	trans, err := ctx.cman.ServerTransport(port)
	fatalError(err)

	go ctx.startPeer(trans)
	waitSignal()
	return nil
}

// ./streamchat client HOST PORT
func (ctx *bootContext) clientCommandHandler(c *cli.Context) error {
	if c.Args().Len() != 2 {
		fatalAndCommandHelp(c)
	}
	host := c.Args().Get(0)
	port := parsePort(c.Args().Get(1))
	ctx.initConfig()
	trans, err := ctx.cman.ClientTransport(host, port)
	fatalError(err)

	go ctx.startPeer(trans)
	waitSignal()
	return nil
}

// ./streamchat config [-o file]
func (ctx *bootContext) configCommandHandler(c *cli.Context) error {
	if c.Args().Len() > 0 {
		fatalAndCommandHelp(c)
	}
	output := getOutputArg(c)
	err := CreateConfigTemplate(output)
	fatalError(err)
	if output != NULL {
		fmt.Fprintln(os.Stderr, "Config template written to", output)
	}
	return nil
}

// ./streamchat keystream SEED [COUNT [OFFSET]]
func (ctx *bootContext) keystreamCommandHandler(c *cli.Context) error {
	var args = c.Args()
	if args.Len() < 1 || args.Len() > 3 {
		fatalAndCommandHelp(c)
	}
	// 0x prefix accepted
	seed, err := strconv.ParseUint(args.Get(0), 0, 64)
	fatalError(err, " (seed)")

	var count, offset = PREVIEW_LEN, 0
	if args.Len() >= 2 {
		count = parsePositive(args.Get(1), 1, " (count)")
	}
	if args.Len() == 3 {
		offset = parsePositive(args.Get(2), 0, " (offset)")
	}

	fmt.Printf("seed        = %X\n", seed)
	fmt.Printf("fingerprint = %s\n", crypto.Fingerprint(seed))
	fmt.Printf("keystream[%d..%d] = % X\n", offset, offset+count, crypto.PreviewAt(seed, offset, count))
	return nil
}

// integer argument no less than min
func parsePositive(str string, min int, what string) int {
	n, err := strconv.Atoi(str)
	if err == nil && n < min {
		err = UNRECOGNIZED_SYMBOLS.Apply(str)
	}
	fatalError(err, what)
	return n
}

func (ctx *bootContext) startPeer(trans *Transport) {
	defer func() {
		var err error
		if ex.Catch(recover(), &err) {
			log.Errorf("Peer %s crashed: %v\n", trans, err)
		}
		sigChan <- Bye
	}()

	console := NewConsole(os.Stdout, ctx.cman.Trace())
	peer := NewPeer(trans, console)
	ctx.register(peer, nil)
	log.Infoln(versionString())
	if cf := ctx.cman.Filepath(); cf != NULL {
		log.Infoln("Config loaded from", cf)
	}

	reason, err := peer.Start(os.Stdin)
	fatalError(err)

	switch {
	case reason == nil:
		console.Println("\nSession closed.")
	case errors.Is(reason, PEER_CLOSED):
		console.Println("\nPeer disconnected.")
	default:
		console.Println("\nSession ended:", reason, ex.Detail(reason))
		if e, y := reason.(*ex.Exception); !y || !e.Warning() {
			log.Warningln("Session ended abnormally:", reason)
		}
	}
	fmt.Fprint(os.Stderr, peer.Stats())
}

func (ctx *bootContext) register(cmp Component, cz io.Closer) {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()
	ctx.components = append(ctx.components, cmp)
	if cz != nil {
		ctx.closeable = append(ctx.closeable, cz)
	}
}

func (ctx *bootContext) doStats() {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()
	for _, t := range ctx.components {
		fmt.Fprintln(os.Stderr, t.Stats())
	}
}

func (ctx *bootContext) doClose() {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()
	for _, t := range ctx.closeable {
		t.Close()
	}
	for _, t := range ctx.components {
		t.Close()
	}
}

func parsePort(str string) int {
	p, err := strconv.ParseUint(str, 10, 16)
	if err != nil || p == 0 {
		fatalError(CONF_ERROR.Apply("port " + str))
	}
	return int(p)
}

func getOutputArg(c *cli.Context) string {
	output := c.String("output")
	if output != NULL && !strings.Contains(output, ".") {
		output += ".ini"
	}
	return output
}

func waitSignal() {
	USR2 := syscall.Signal(12) // fake signal-USR2 for windows
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, USR2)
	for sig := range sigChan {
		switch sig {
		case Bye:
			log.Infoln("Exiting.")
			context.doClose()
			return
		case syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM:
			log.Infoln("Terminated by", sig)
			context.doClose()
			return
		case USR2:
			context.doStats()
		default:
			log.Infoln("Ingore signal", sig)
		}
	}
}

func fatalError(err error, args ...interface{}) {
	if err != nil {
		msg := err.Error()
		if len(args) > 0 {
			msg += fmt.Sprint(args...)
		}
		if d := ex.Detail(errors.Unwrap(err)); d != NULL {
			msg += " " + d
		}
		fmt.Fprintln(os.Stderr, msg)
		context.doClose()
		log.Flush()
		os.Exit(exitCodeOf(err))
	}
}

// coded exceptions exit with their code
func exitCodeOf(err error) int {
	var e *ex.Exception
	if errors.As(err, &e) && e.Code() > 0 {
		return e.Code()
	}
	return 1
}

func fatalAndCommandHelp(c *cli.Context) {
	// app root
	if c.Command == nil || c.Command.Name == NULL {
		cli.HelpPrinter(os.Stderr, cli.AppHelpTemplate, c.App)
	} else { // command
		cli.HelpPrinter(os.Stderr, cli.CommandHelpTemplate, c.Command)
	}
	context.doClose()
	os.Exit(1)
}
