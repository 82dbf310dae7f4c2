package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

const debuggerPrompt = "(runic) "

// DebuggerCLI is an interactive command-line front end for the debugger
// hook: it stops on every event, prints the location, and reads commands
// until one resumes execution. On a TTY it uses line editing with
// history; otherwise it falls back to plain buffered reads.
type DebuggerCLI struct {
	input  io.Reader
	output io.Writer

	line    *liner.State
	scanner *bufio.Scanner
}

// NewDebuggerCLI builds a CLI on stdin/stdout.
func NewDebuggerCLI() *DebuggerCLI {
	cli := &DebuggerCLI{input: os.Stdin, output: os.Stdout}
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		cli.line = liner.NewLiner()
		cli.line.SetCtrlCAborts(true)
	}
	return cli
}

// NewDebuggerCLIWithIO builds a CLI on explicit streams, without line
// editing. Used by tests and non-terminal hosts.
func NewDebuggerCLIWithIO(in io.Reader, out io.Writer) *DebuggerCLI {
	return &DebuggerCLI{input: in, output: out}
}

// Attach registers the CLI as the engine's debugger.
func (cli *DebuggerCLI) Attach(e *Engine) {
	e.RegisterDebugger(nil, cli.OnDebugEvent)
	fmt.Fprintf(cli.output, "Debugger started. Type 'help' for commands.\n")
}

// Close releases the terminal state.
func (cli *DebuggerCLI) Close() {
	if cli.line != nil {
		cli.line.Close()
	}
}

func (cli *DebuggerCLI) readLine() (string, bool) {
	if cli.line != nil {
		s, err := cli.line.Prompt(debuggerPrompt)
		if err != nil {
			return "", false
		}
		if strings.TrimSpace(s) != "" {
			cli.line.AppendHistory(s)
		}
		return s, true
	}
	if cli.scanner == nil {
		cli.scanner = bufio.NewScanner(cli.input)
	}
	fmt.Fprint(cli.output, debuggerPrompt)
	if !cli.scanner.Scan() {
		return "", false
	}
	return cli.scanner.Text(), true
}

// OnDebugEvent is the hook callback: print where we are, then loop until
// a command resumes execution.
func (cli *DebuggerCLI) OnDebugEvent(ctx *EvalContext, event DebuggerEvent) (DebuggerCommand, error) {
	cli.printEvent(ctx, event)

	for {
		raw, ok := cli.readLine()
		if !ok {
			fmt.Fprintf(cli.output, "\nExiting debugger (EOF).\n")
			return DebugContinue, nil
		}
		parts := strings.Fields(strings.TrimSpace(raw))
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help", "h":
			cli.printHelp()
		case "continue", "c":
			return DebugContinue, nil
		case "step", "s":
			return DebugStepInto, nil
		case "next", "n":
			return DebugNext, nil
		case "stepover", "so", "over":
			return DebugStepOver, nil
		case "stepout", "out", "finish", "fin":
			return DebugFunctionExit, nil
		case "break", "b":
			cli.handleBreak(ctx, args)
		case "delete", "d":
			cli.handleDelete(ctx, args)
		case "list", "l":
			cli.handleList(ctx)
		case "locals", "vars":
			cli.handleLocals(ctx)
		case "backtrace", "bt":
			cli.handleBacktrace(ctx)
		case "print", "p":
			cli.handlePrint(ctx, args)
		case "quit", "q", "exit":
			return DebugContinue, errors.New("terminated by debugger")
		default:
			fmt.Fprintf(cli.output, "Unknown command: %s. Type 'help' for help.\n", cmd)
		}
	}
}

func (cli *DebuggerCLI) printEvent(ctx *EvalContext, event DebuggerEvent) {
	where := "?"
	if !event.Position.IsNone() {
		where = fmt.Sprintf("%d:%d", event.Position.Line, event.Position.Column)
	}
	src := ctx.Source()
	if src == "" {
		src = "<eval>"
	}
	switch event.Kind {
	case EventInit:
		fmt.Fprintf(cli.output, "Stopped at start of %s (%s), run %s\n", src, where, ctx.RunID())
	case EventBreakPoint:
		fmt.Fprintf(cli.output, "Breakpoint %d hit at %s:%s\n", event.BreakPoint, src, where)
	case EventFunctionExit:
		fmt.Fprintf(cli.output, "Function exit at %s:%s => %s\n", src, where, event.Result.Inspect())
	default:
		fmt.Fprintf(cli.output, "Stopped at %s:%s\n", src, where)
	}
}

func (cli *DebuggerCLI) printHelp() {
	help := `Debugger commands:
  help, h                - Show this help
  continue, c            - Continue execution until next breakpoint
  step, s                - Step into the next node
  next, n                - Step to the next statement (over calls)
  stepover, so           - Run the current node, then stop
  stepout, out, finish   - Run until the current function returns
  break, b <line>        - Set breakpoint at a source line
  break, b <fn>[/arity]  - Set breakpoint on a function call
  break, b .<field>      - Set breakpoint on property access
  delete, d <index>      - Delete breakpoint by index
  list, l                - List all breakpoints
  locals, vars           - Show scope variables
  backtrace, bt          - Show call stack
  print, p <name>        - Print a variable value
  quit, q, exit          - Terminate the run
`
	fmt.Fprint(cli.output, help)
}

func (cli *DebuggerCLI) handleBreak(ctx *EvalContext, args []string) {
	dbg := ctx.Debugger()
	if dbg == nil || len(args) == 0 {
		fmt.Fprintf(cli.output, "Usage: break <line> | break <fn>[/arity] | break .<field>\n")
		return
	}
	spec := args[0]
	var bp *BreakPoint
	switch {
	case strings.HasPrefix(spec, "."):
		bp = &BreakPoint{Kind: BreakAtProperty, Field: spec[1:]}
	case strings.Contains(spec, "/"):
		parts := strings.SplitN(spec, "/", 2)
		arity, err := strconv.Atoi(parts[1])
		if err != nil {
			fmt.Fprintf(cli.output, "Invalid arity: %s\n", parts[1])
			return
		}
		bp = &BreakPoint{Kind: BreakAtFunctionCall, FnName: parts[0], Arity: arity}
	default:
		if line, err := strconv.Atoi(spec); err == nil {
			bp = &BreakPoint{Kind: BreakAtPosition, Position: ast.Position{Line: line}}
		} else {
			bp = &BreakPoint{Kind: BreakAtFunctionName, FnName: spec}
		}
	}
	dbg.AddBreakPoint(bp)
	fmt.Fprintf(cli.output, "Breakpoint %d set: %s\n", len(dbg.BreakPoints())-1, bp)
}

func (cli *DebuggerCLI) handleDelete(ctx *EvalContext, args []string) {
	dbg := ctx.Debugger()
	if dbg == nil || len(args) == 0 {
		fmt.Fprintf(cli.output, "Usage: delete <index>\n")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(cli.output, "Invalid index: %s\n", args[0])
		return
	}
	dbg.RemoveBreakPoint(i)
	fmt.Fprintf(cli.output, "Breakpoint %d removed\n", i)
}

func (cli *DebuggerCLI) handleList(ctx *EvalContext) {
	dbg := ctx.Debugger()
	if dbg == nil || len(dbg.BreakPoints()) == 0 {
		fmt.Fprintf(cli.output, "No breakpoints set.\n")
		return
	}
	fmt.Fprintf(cli.output, "Breakpoints:\n")
	for i, bp := range dbg.BreakPoints() {
		state := "enabled"
		if !bp.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(cli.output, "  %d. %s (%s)\n", i, bp, state)
	}
}

func (cli *DebuggerCLI) handleLocals(ctx *EvalContext) {
	s := ctx.Scope()
	if s.Len() == 0 {
		fmt.Fprintf(cli.output, "No variables in scope.\n")
		return
	}
	for i := 0; i < s.Len(); i++ {
		fmt.Fprintf(cli.output, "  %s = %s\n", s.NameByIndex(i), s.GetByIndex(i).Inspect())
	}
}

func (cli *DebuggerCLI) handleBacktrace(ctx *EvalContext) {
	frames := ctx.CallStack()
	if len(frames) == 0 {
		fmt.Fprintf(cli.output, "No active calls.\n")
		return
	}
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		fmt.Fprintf(cli.output, "  #%d %s (%s) at %d:%d\n", len(frames)-1-i, f.FnName, f.Source, f.Position.Line, f.Position.Column)
	}
}

func (cli *DebuggerCLI) handlePrint(ctx *EvalContext, args []string) {
	if len(args) == 0 {
		fmt.Fprintf(cli.output, "Usage: print <name>\n")
		return
	}
	name := args[0]
	if v, ok := ctx.Scope().Get(name); ok {
		fmt.Fprintf(cli.output, "%s\n", value.Flatten(v).Inspect())
		return
	}
	if this, ok := ctx.This(); ok && name == "this" {
		fmt.Fprintf(cli.output, "%s\n", value.Flatten(this).Inspect())
		return
	}
	fmt.Fprintf(cli.output, "Variable not found: %s\n", name)
}
