/*
 * nscc - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"os"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	compilerconfig "github.com/ncsforge/nscc/config/compilerconfig"
	disasm "github.com/ncsforge/nscc/disasm"
	console "github.com/ncsforge/nscc/internal/console"
	driver "github.com/ncsforge/nscc/internal/driver"
	logger "github.com/ncsforge/nscc/internal/logger"
	sample "github.com/ncsforge/nscc/internal/sample"
	ncs "github.com/ncsforge/nscc/ncs"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Compiler configuration file")
	optOutput := getopt.StringLong("output", 'o', "", "Output file (default <sample>.ncs)")
	optDebugFile := getopt.BoolLong("ndb", 'g', "Write the NDB debug sidecar")
	optDisasm := getopt.BoolLong("disasm", 'd', "Disassemble the result to stdout")
	optRepl := getopt.BoolLong("repl", 'r', "Interactive inspector")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'D', "Mirror debug logging to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.SetParameters("[sample]")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		fmt.Fprintln(os.Stderr, "samples: "+strings.Join(sample.Names(), " "))
		os.Exit(0)
	}

	log, closeLog, err := logger.Setup(*optLogFile, *optDebug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer closeLog()

	cfg := compilerconfig.Default()
	if *optConfig != "" {
		cfg, err = compilerconfig.Load(*optConfig)
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
	}

	if *optRepl {
		console.Run(&console.Session{Config: cfg, Log: log})
		return
	}

	args := getopt.Args()
	if len(args) != 1 {
		getopt.Usage()
		fmt.Fprintln(os.Stderr, "samples: "+strings.Join(sample.Names(), " "))
		os.Exit(1)
	}
	name := args[0]

	p, err := sample.Build(name)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
	result, err := driver.Compile(p, cfg, log)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}

	output := *optOutput
	if output == "" {
		output = name + ".ncs"
	}
	if err := os.WriteFile(output, result.Image, 0o644); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
	log.Info("wrote " + output)

	if *optDebugFile {
		text, err := result.RenderNDB()
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		ndbName := strings.TrimSuffix(output, ".ncs") + ".ndb"
		if err := os.WriteFile(ndbName, []byte(text), 0o644); err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		log.Info("wrote " + ndbName)
	}

	if *optDisasm {
		body, _, err := ncs.SplitHeader(result.Image)
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		instrs, err := disasm.Disassemble(body)
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		fmt.Print(disasm.Print(instrs))
	}
}
