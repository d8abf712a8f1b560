package main

import (
	"errors"
	"flag"
	"os"

	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/splice"
	"github.com/npillmayer/splice/interp"
	"github.com/npillmayer/splice/syntax"
	"github.com/pterm/pterm"
)

func main() {
	configf := flag.String("config", "splice.toml", "Configuration file")
	path := flag.String("path", "", "Directory to load modules from")
	tlevel := flag.String("trace", "", "Trace level [Debug|Info|Error]")
	initf := flag.String("init", "", "Initial load")
	expandOnly := flag.Bool("expand", false, "Print the expanded program instead of running it")
	flag.Parse()
	//
	// set up configuration and logging
	initDisplay()
	conf, err := loadConfig(*configf)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
	adapter := traceAdapter(conf)
	gconf.Initialize(conf)
	gtrace.SyntaxTracer = adapter()
	tracing.SetTraceSelector(tracing.SelectorForAdapter(adapter))
	level := conf.GetString("tracing.level")
	if *tlevel != "" {
		level = *tlevel
	}
	tracer().SetTraceLevel(tracing.TraceLevelFromString(level))
	tracer().Infof("Trace level is %s", level)
	dir := conf.GetString("path")
	if *path != "" {
		dir = *path
	}
	in := interp.New(interp.DirLoader{Path: dir})
	//
	// run a file or enter interactive mode
	if flag.NArg() > 0 {
		os.Exit(runFile(in, flag.Arg(0), *expandOnly))
	}
	pterm.Info.Println("Welcome to spx")
	repl, err := newREPL(in)
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	tracer().Infof("Quit with <ctrl>D")
	repl.loadInitFile(*initf)
	repl.run()
}

// traceAdapter returns the tracing adapter named by configuration key
// "tracing.adapter". Adapter "go" logs to stderr, unknown names result in a
// no-op tracer.
func traceAdapter(conf schuko.Configuration) tracing.Adapter {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	return tracing.GetAdapterFromConfiguration(conf, "")
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func runFile(in *interp.Interpreter, filename string, expandOnly bool) int {
	src, err := os.ReadFile(filename)
	if err != nil {
		pterm.Error.Println(err.Error())
		return 2
	}
	if expandOnly {
		res, err := in.Expand("__main__", string(src))
		if err != nil {
			reportError(err)
			return 1
		}
		out, err := syntax.Render(res.Tree)
		if err != nil {
			reportError(err)
			return 1
		}
		pterm.Println(out)
		return 0
	}
	if _, err = in.Run("__main__", string(src)); err != nil {
		reportError(err)
		return 1
	}
	return 0
}

// reportError prints an error. Errors raised in macro handlers carry a
// traceback, which is printed as well.
func reportError(err error) {
	var ierr *interp.Error
	var mee *splice.MacroExpansionError
	switch {
	case errors.As(err, &mee):
		pterm.Error.Println(err.Error())
		if mee.Traceback != "" {
			pterm.Println(mee.Traceback)
		}
	case errors.As(err, &ierr):
		pterm.Error.Println(ierr.Error())
		pterm.Println(ierr.Traceback())
	default:
		pterm.Error.Println(err.Error())
	}
}
