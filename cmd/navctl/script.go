package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/comalice/navigatorx"
)

// scriptLine is one line of a navigation script: either a batch of steps
// (several separated by ';') or a single flow command.
type scriptLine struct {
	num   int
	batch navigatorx.BatchBuilder
	flow  string
	route string
	// params for flow start and advance
	params navigatorx.Params
}

func readScript(path string) ([]scriptLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return parseScript(f)
}

// parseScript reads the line-based script format:
//
//	navigate <path> [key=value...] [--dismiss]
//	replace <path> [key=value...] [--dismiss]
//	back
//	popto <path> [inclusive]
//	clear [path] [key=value...]
//	flow start <route> [key=value...]
//	flow advance [key=value...]
//	flow exit
//
// Blank lines and lines starting with '#' are skipped.
func parseScript(r io.Reader) ([]scriptLine, error) {
	var out []scriptLine
	sc := bufio.NewScanner(r)
	num := 0
	for sc.Scan() {
		num++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		line, err := parseLine(num, text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", num, err)
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return out, nil
}

func parseLine(num int, text string) (scriptLine, error) {
	line := scriptLine{num: num, batch: navigatorx.Batch()}
	fields := strings.Fields(text)
	if fields[0] == "flow" {
		return parseFlow(line, fields[1:])
	}

	for _, part := range strings.Split(text, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			return line, fmt.Errorf("empty step")
		}
		var err error
		if line.batch, err = appendStep(line.batch, fields[0], fields[1:]); err != nil {
			return line, err
		}
	}
	return line, nil
}

func appendStep(b navigatorx.BatchBuilder, verb string, args []string) (navigatorx.BatchBuilder, error) {
	var allowed []string
	if verb == "navigate" || verb == "replace" {
		allowed = []string{"dismiss"}
	}
	positional, params, flags, err := splitArgs(args, allowed...)
	if err != nil {
		return b, fmt.Errorf("%s: %w", verb, err)
	}
	switch verb {
	case "navigate", "replace":
		if len(positional) != 1 {
			return b, fmt.Errorf("%s takes exactly one path", verb)
		}
		if verb == "navigate" {
			b = b.Navigate(positional[0], params)
		} else {
			b = b.Replace(positional[0], params)
		}
		if flags["dismiss"] {
			b = b.DismissModals()
		}
	case "back":
		if len(positional) != 0 || len(params) != 0 {
			return b, fmt.Errorf("back takes no arguments")
		}
		b = b.Back()
	case "popto":
		if len(positional) < 1 || len(positional) > 2 {
			return b, fmt.Errorf("popto takes a path and an optional 'inclusive'")
		}
		inclusive := len(positional) == 2
		if inclusive && positional[1] != "inclusive" {
			return b, fmt.Errorf("popto: unexpected %q", positional[1])
		}
		b = b.PopUpTo(positional[0], inclusive)
	case "clear":
		switch len(positional) {
		case 0:
			b = b.ClearBackStack()
		case 1:
			b = b.ClearAndNavigate(positional[0], params)
		default:
			return b, fmt.Errorf("clear takes at most one path")
		}
	default:
		return b, fmt.Errorf("unknown command %q", verb)
	}
	return b, nil
}

func parseFlow(line scriptLine, args []string) (scriptLine, error) {
	if len(args) == 0 {
		return line, fmt.Errorf("flow needs start, advance or exit")
	}
	positional, params, _, err := splitArgs(args[1:])
	if err != nil {
		return line, fmt.Errorf("flow %s: %w", args[0], err)
	}
	line.flow = args[0]
	line.params = params
	switch args[0] {
	case "start":
		if len(positional) != 1 {
			return line, fmt.Errorf("flow start takes exactly one route")
		}
		line.route = positional[0]
	case "advance":
		if len(positional) != 0 {
			return line, fmt.Errorf("flow advance takes only key=value params")
		}
	case "exit":
		if len(positional) != 0 || len(params) != 0 {
			return line, fmt.Errorf("flow exit takes no arguments")
		}
	default:
		return line, fmt.Errorf("unknown flow command %q", args[0])
	}
	return line, nil
}

// splitArgs separates positional arguments, key=value params and --flags.
// Flags not named in allowed are rejected.
func splitArgs(args []string, allowed ...string) ([]string, navigatorx.Params, map[string]bool, error) {
	var positional []string
	var params navigatorx.Params
	flags := make(map[string]bool)
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "--"):
			name := strings.TrimPrefix(a, "--")
			if !slices.Contains(allowed, name) {
				return nil, nil, nil, fmt.Errorf("unknown flag %q", a)
			}
			flags[name] = true
		case strings.Contains(a, "="):
			k, v, _ := strings.Cut(a, "=")
			if k == "" {
				return nil, nil, nil, fmt.Errorf("param %q has no key", a)
			}
			if params == nil {
				params = navigatorx.Params{}
			}
			params[k] = v
		default:
			positional = append(positional, a)
		}
	}
	return positional, params, flags, nil
}

func (l scriptLine) run(nav *navigatorx.Navigator) (navigatorx.NavState, error) {
	switch l.flow {
	case "start":
		if _, ok := nav.EffectiveFlow(l.route); !ok {
			return nav.State(), fmt.Errorf("%w: %s", navigatorx.ErrFlowNotFound, l.route)
		}
		return nav.StartFlow(l.route, l.params)
	case "advance":
		return nav.AdvanceFlow(l.params)
	case "exit":
		return nav.ExitFlow()
	}
	return l.batch.Apply(nav)
}
