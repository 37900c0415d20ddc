package cli

import (
	"fmt"
	"io"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  runcurry [Curry system options] <prog.curry> [run-time arguments]")
	fmt.Fprintln(w, "    loads the Curry program and evaluates its main operation")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  runcurry [Curry system options] <script> [run-time arguments]")
	fmt.Fprintln(w, "    runs an executable script; lines starting with '#' are dropped")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  runcurry [Curry system options] < <program text>")
	fmt.Fprintln(w, "    runs the program read from standard input")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  runcurry -h | --help | -?")
	fmt.Fprintln(w, "  runcurry -V | --version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Scripts start with a line such as")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  #!/usr/bin/env runcurry")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "and must not end in .curry or .lcurry. A line '#jit' in a script")
	fmt.Fprintln(w, "compiles it once into <script>.bin and reuses that executable until")
	fmt.Fprintln(w, "the script changes.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  RUNCURRY_CONFIG     config file (default $XDG_CONFIG_HOME/runcurry/config.yaml)")
	fmt.Fprintln(w, "  RUNCURRY_OPTIONS    Curry system options added to every invocation")
	fmt.Fprintln(w, "  RUNCURRY_LOG_LEVEL  debug, info, warn or error")
}
