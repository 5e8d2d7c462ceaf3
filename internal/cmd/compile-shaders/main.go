// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Command compile-shaders generates the checked-in .wgsl files from
// the shader sources. Each source can declare permutations in a
// "permutations" file; every permutation is preprocessed with its own
// set of defines and written as a separate output.
//
// Supported directives: #ifdef/#ifndef/#else/#endif for permutation
// branches and #import for files from the shared/ directory. Top-level
// "let" declarations are rewritten to "const".
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	var (
		in      string
		out     string
		verbose bool
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-v] -in <dir> -out <dir>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&in, "in", "", "Path to `directory` to process")
	flag.StringVar(&out, "out", "./out", "Path to output `directory`")
	flag.BoolVar(&verbose, "v", false, "Be verbose")
	flag.Parse()

	if len(flag.Args()) != 0 {
		flag.Usage()
		os.Exit(2)
	}

	dief := func(f string, v ...any) {
		fmt.Fprintf(os.Stderr, f+"\n", v...)
		os.Exit(1)
	}

	permutations := map[string][]permutation{}
	if permSource, err := os.ReadFile(filepath.Join(in, "permutations")); err == nil {
		permutations = parsePermutations(permSource)
	} else if !os.IsNotExist(err) {
		dief("Couldn't read permutations: %s", err)
	}

	matches, err := filepath.Glob(filepath.Join(in, "*.wgsl"))
	if err != nil {
		panic(err)
	}
	if err := os.MkdirAll(out, 0777); err != nil {
		dief("Couldn't create output directory: %s", err)
	}

	p := preprocessor{
		importDir: filepath.Join(in, "shared"),
		verbose:   verbose,
	}

	for _, m := range matches {
		src, err := os.ReadFile(m)
		if err != nil {
			dief("Couldn't read %q: %s", m, err)
		}
		name := strings.TrimSuffix(filepath.Base(m), ".wgsl")

		perms := permutations[name]
		if len(perms) == 0 {
			perms = []permutation{{name: name}}
		}
		for _, perm := range perms {
			if verbose {
				fmt.Fprintf(os.Stderr, "compiling %s as %s %v\n", filepath.Base(m), perm.name, perm.defines)
			}
			p.defines = make(map[string]bool, len(perm.defines))
			for _, d := range perm.defines {
				p.defines[d] = true
			}
			processed, err := p.process(src, name)
			if err != nil {
				dief("Couldn't preprocess %q: %s", m, err)
			}
			if err := os.WriteFile(filepath.Join(out, perm.name+".wgsl"), processed, 0666); err != nil {
				dief("Couldn't write %q: %s", perm.name, err)
			}
		}
	}
}

type preprocessor struct {
	importDir string
	verbose   bool
	defines   map[string]bool

	imports map[string][]byte
}

func (p *preprocessor) getImport(name string) ([]byte, error) {
	if src, ok := p.imports[name]; ok {
		return src, nil
	}
	src, err := os.ReadFile(filepath.Join(p.importDir, name+".wgsl"))
	if err != nil {
		return nil, err
	}
	if p.imports == nil {
		p.imports = make(map[string][]byte)
	}
	p.imports[name] = src
	return src, nil
}

type branch struct {
	active    bool
	elseTaken bool
}

func (p *preprocessor) process(source []byte, name string) ([]byte, error) {
	var out []byte
	var stack []branch
	lineNo := 0

	errorf := func(f string, v ...any) error {
		v = append(v, name, lineNo)
		return fmt.Errorf(f+" (at %s:%d)", v...)
	}
	active := func() bool {
		for _, b := range stack {
			if !b.active {
				return false
			}
		}
		return true
	}

	for len(source) > 0 {
		lineNo++
		var line []byte
		line, source, _ = bytes.Cut(source, []byte("\n"))

		trimmed := bytes.TrimSpace(line)
		if !bytes.HasPrefix(trimmed, []byte("#")) {
			if active() {
				if bytes.HasPrefix(line, []byte("let ")) {
					out = append(out, "const"...)
					out = append(out, line[3:]...)
				} else {
					out = append(out, line...)
				}
				out = append(out, '\n')
			}
			continue
		}

		directive, arg, _ := bytes.Cut(trimmed[1:], []byte(" "))
		arg = bytes.TrimSpace(arg)

		switch string(directive) {
		case "ifdef", "ifndef":
			stack = append(stack, branch{
				active: p.defines[string(arg)] == (string(directive) == "ifdef"),
			})
		case "else":
			if len(stack) == 0 {
				return nil, errorf("else without matching ifdef")
			}
			b := &stack[len(stack)-1]
			if b.elseTaken {
				return nil, errorf("second else for same ifdef")
			}
			b.elseTaken = true
			b.active = !b.active
		case "endif":
			if len(stack) == 0 {
				return nil, errorf("mismatched endif")
			}
			stack = stack[:len(stack)-1]
		case "import":
			if len(arg) == 0 {
				return nil, errorf("#import needs an argument")
			}
			if !active() {
				continue
			}
			src, err := p.getImport(string(arg))
			if err != nil {
				return nil, errorf("couldn't import %q: %w", arg, err)
			}
			imported, err := p.process(src, string(arg))
			if err != nil {
				return nil, err
			}
			out = append(out, imported...)
		default:
			return nil, errorf("unknown preprocessor directive %q", directive)
		}
	}
	if len(stack) != 0 {
		return nil, errorf("unterminated ifdef")
	}

	return out, nil
}

type permutation struct {
	name    string
	defines []string
}

// parsePermutations reads the permutations file: a non-indented line
// names a source shader, each following "+ name: defines" line one of
// its permutations.
func parsePermutations(source []byte) map[string][]permutation {
	out := make(map[string][]permutation)
	var current string
	for _, line := range bytes.Split(source, []byte("\n")) {
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if line[0] != '+' {
			current = string(bytes.TrimSpace(line))
			continue
		}
		if current == "" {
			continue
		}
		name, defines, _ := bytes.Cut(line[1:], []byte(":"))
		out[current] = append(out[current], permutation{
			name:    string(bytes.TrimSpace(name)),
			defines: strings.Fields(string(defines)),
		})
	}
	return out
}
