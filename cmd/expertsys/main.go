// Command expertsys runs the expert-system reasoning engine: read a
// ruleset from a file, stdin, or an interactive REPL, solve every query it
// contains, and print the conclusion (or, with -d, render the inference
// graph as Graphviz DOT). With -s it serves the same engine over HTTP
// instead.
package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/znichola/expert-system/internal/dot"
	"github.com/znichola/expert-system/internal/graph"
	"github.com/znichola/expert-system/internal/httpapi"
	"github.com/znichola/expert-system/internal/lexer"
	"github.com/znichola/expert-system/internal/parser"
	"github.com/znichola/expert-system/internal/session"
)

var (
	flagExplain   bool
	flagDot       bool
	flagInteract  bool
	flagOpenWorld bool
	flagServer    bool
	flagPort      int

	log *zap.SugaredLogger
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log = logger.Sugar()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expertsys [file]",
		Short: "Expert system in propositional calculus",
		Long: `Expert system .. in propositional calculation.

Reads a ruleset (facts, rules, queries) from a file, or from stdin when no
file is given, solves every query, and prints the conclusion.`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolVarP(&flagExplain, "explain", "e", false, "print the solver's reasoning trace")
	cmd.Flags().BoolVarP(&flagDot, "dot", "d", false, "print the inference graph as Graphviz DOT instead of solving")
	cmd.Flags().BoolVarP(&flagInteract, "interactive", "i", false, "read a ruleset interactively from stdin, terminated by a line containing ';;'")
	cmd.Flags().BoolVar(&flagOpenWorld, "open-world-assumption", false, "treat unprovable facts as Undetermined instead of False")
	cmd.Flags().BoolVarP(&flagServer, "server", "s", false, "launch the HTTP front-end instead of solving")
	cmd.Flags().IntVar(&flagPort, "port", 8080, "port for --server")

	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	if flagServer {
		return runServer()
	}

	input, err := readInput(args)
	if err != nil {
		log.Errorw("startup error", "error", err)
		return err
	}

	tokens, err := lexer.Lex(input)
	if err != nil {
		log.Errorw("parse error", "error", err)
		return err
	}
	rules, facts, queries, err := parser.Parse(tokens)
	if err != nil {
		log.Errorw("parse error", "error", err)
		return err
	}

	g, err := graph.Build(facts, rules, queries)
	if err != nil {
		log.Errorw("build error", "error", err)
		return err
	}
	g.Explain = flagExplain

	mode := graph.ClosedWorld
	if flagOpenWorld {
		mode = graph.OpenWorld
	}
	g.ApplyWorldAssumption(mode)

	if flagDot {
		fmt.Println(dot.Render(g))
		return nil
	}

	sess := session.New(g, nil)
	conclusion, explanation, hadError := sess.SolveEverything(queries)
	fmt.Print(conclusion)
	if flagExplain {
		fmt.Print(explanation)
	}
	if hadError {
		return sess.Errors()
	}
	return nil
}

func runServer() error {
	srv, err := httpapi.New(log, 256)
	if err != nil {
		log.Errorw("failed to build server", "error", err)
		return err
	}
	addr := fmt.Sprintf(":%d", flagPort)
	log.Infow("server listening", "addr", addr)
	return http.ListenAndServe(addr, srv.Router())
}

// readInput returns the ruleset text: the named file's contents, the
// interactive REPL's single block (terminated by a line containing ";;"),
// or all of stdin if neither applies.
func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("cannot open file %q: %w", args[0], err)
		}
		return string(data), nil
	}

	if flagInteract {
		return readInteractive(os.Stdin)
	}

	data, err := readAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}

func readInteractive(f *os.File) (string, error) {
	var b strings.Builder
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, ";;"); idx != -1 {
			b.WriteString(line[:idx])
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), scanner.Err()
}

func readAll(f *os.File) (string, error) {
	var b strings.Builder
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		b.WriteString(scanner.Text())
		b.WriteByte('\n')
	}
	return b.String(), scanner.Err()
}
