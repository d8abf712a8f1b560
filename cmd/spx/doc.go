/*
Command spx runs spx programs and provides an interactive REPL for
experiments with macros.

    spx [-path dir] [-config splice.toml] [-trace level] [-init file] [-expand] [file.spx]

With a file argument, the file is expanded and executed as module __main__.
With -expand, the expanded program is printed instead of being run. Without
a file argument spx enters interactive mode. Inputs may span several lines,
as long as braces are left open. Lines starting with a colon are commands:

    :expand <input>    show the expansion of an input
    :macros <module>   list the macros a module defines
    :tree <expr>       display the syntax tree of an expression
    :quit              leave the REPL

Modules are searched in the directory given by -path. Configuration is read
from a TOML file, see type tomlConfig.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'splice.cmd'
func tracer() tracing.Trace {
	return tracing.Select("splice.cmd")
}
