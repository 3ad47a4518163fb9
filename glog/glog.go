// Package glog adapts github.com/golang/glog to the flag-less command line of
// streamchat. The verbosity and output directory are injected by the boot
// context instead of being parsed from flag.CommandLine.
package glog

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang/glog"
)

type Verbose = glog.Verbose

// empty dir means stderr
func SetLogOutput(dir string) {
	// glog complains about logging before flag.Parse otherwise
	if !flag.Parsed() {
		flag.CommandLine.Parse([]string{})
	}
	if dir == "" {
		flag.Set("logtostderr", "true")
	} else {
		flag.Set("logtostderr", "false")
		flag.Set("log_dir", dir)
		flag.Set("alsologtostderr", "false")
	}
}

func SetLogVerbose(level int) {
	if level < 0 {
		level = 0
	}
	flag.Set("v", strconv.Itoa(level))
}

func V(level int) Verbose {
	return glog.V(glog.Level(level))
}

func Infoln(args ...interface{}) {
	glog.InfoDepth(1, fmt.Sprintln(args...))
}

func Infof(format string, args ...interface{}) {
	glog.InfoDepth(1, fmt.Sprintf(format, args...))
}

func Warningln(args ...interface{}) {
	glog.WarningDepth(1, fmt.Sprintln(args...))
}

func Warningf(format string, args ...interface{}) {
	glog.WarningDepth(1, fmt.Sprintf(format, args...))
}

func Errorln(args ...interface{}) {
	glog.ErrorDepth(1, fmt.Sprintln(args...))
}

func Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1, fmt.Sprintf(format, args...))
}

// write to stderr regardless of verbosity, for recovered stacks.
func DirectPrintln(args ...interface{}) {
	fmt.Fprintln(os.Stderr, args...)
}

func Flush() {
	glog.Flush()
}
