package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/jacoelho/tagstream"
	tserrors "github.com/jacoelho/tagstream/errors"
	"github.com/jacoelho/tagstream/internal/rules"
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tagrewrite", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rulesPath := fs.String("rules", "", "path to YAML rules file")
	bufferCapacity := fs.Int("buffer", 0, "largest tag or comment in bytes that may span two reads (0 uses default)")
	encodingLabel := fs.String("encoding", "", "input encoding label (default utf-8)")
	chunkSize := fs.Int("chunk", 0, "read size in bytes (0 uses default)")
	trace := fs.Bool("trace", false, "write stream trace events to stderr")
	cpuProfilePath := fs.String("cpuprofile", "", "write CPU profile to file")
	memProfilePath := fs.String("memprofile", "", "write memory profile to file")
	var usageErr error
	fs.Usage = func() {
		usageErr = errors.Join(
			usageErr,
			writef(stderr, "Usage: %s --rules <rules.yaml> <document.html|->\n\n", os.Args[0]),
			writeln(stderr, "Rewrites an HTML document with selector rules and writes it to stdout."),
			writeln(stderr),
			writeln(stderr, "Options:"),
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *rulesPath == "" {
		if err := writeln(stderr, "error: --rules is required"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}

	remaining := fs.Args()
	if len(remaining) != 1 {
		if err := writeln(stderr, "error: exactly one HTML file argument is required"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}
	inputPath := remaining[0]

	if *cpuProfilePath != "" {
		stopCPUProfile, err := startCPUProfile(*cpuProfilePath)
		if err != nil {
			_ = writef(stderr, "error starting CPU profile: %v\n", err)
			return 1
		}
		defer func() {
			if err := stopCPUProfile(); err != nil {
				_ = writef(stderr, "error stopping CPU profile: %v\n", err)
			}
		}()
	}

	if *memProfilePath != "" {
		defer func() {
			if err := writeMemProfile(*memProfilePath); err != nil {
				_ = writef(stderr, "error writing memory profile: %v\n", err)
			}
		}()
	}

	set, err := rules.LoadFile(*rulesPath)
	if err != nil {
		_ = writef(stderr, "error loading rules: %v\n", err)
		return 1
	}
	program, err := set.Program()
	if err != nil {
		_ = writef(stderr, "error compiling rules: %v\n", err)
		return 1
	}

	opts := tagstream.NewOptions().
		WithBufferCapacity(*bufferCapacity).
		WithReadSize(*chunkSize).
		WithEncoding(*encodingLabel)
	if *trace {
		opts = opts.WithLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	input := stdin
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			_ = writef(stderr, "error opening input: %v\n", err)
			return 1
		}
		defer f.Close()
		input = f
	}

	out := bufio.NewWriter(stdout)
	stream, err := tagstream.NewStream(program, rules.NewController(set), tagstream.WriterSink{W: out}, opts)
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return 1
	}
	if _, err := stream.ReadFrom(input); err != nil {
		reportStreamError(stderr, inputPath, err)
		return 1
	}
	if err := stream.End(); err != nil {
		reportStreamError(stderr, inputPath, err)
		return 1
	}
	if err := out.Flush(); err != nil {
		_ = writef(stderr, "error writing output: %v\n", err)
		return 1
	}
	return 0
}

func reportStreamError(w io.Writer, path string, err error) {
	if e, ok := tserrors.AsError(err); ok && e.Code == string(tserrors.ErrBufferCapacity) {
		_ = writef(w, "%s: %v\nhint: raise --buffer\n", path, err)
		return
	}
	_ = writef(w, "%s: %v\n", path, err)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

func startCPUProfile(path string) (func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile %s: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return nil, fmt.Errorf("start cpu profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return nil, fmt.Errorf("start cpu profile %s: %w", path, err)
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return fmt.Errorf("close cpu profile %s: %w", path, err)
		}
		return nil
	}, nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mem profile %s: %w", path, err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return fmt.Errorf("write mem profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return fmt.Errorf("write mem profile %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mem profile %s: %w", path, err)
	}
	return nil
}
