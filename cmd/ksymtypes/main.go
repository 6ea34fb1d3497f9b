// Command ksymtypes consolidates and compares Linux-kernel .symtypes ABI
// dumps. See `ksymtypes --help` for usage.
package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/tallhamn/ksymtypes/internal/config"
	"github.com/tallhamn/ksymtypes/internal/klog"
	"github.com/tallhamn/ksymtypes/internal/symtypes"
)

func printUsage() {
	fmt.Print("" +
		"Usage: ksymtypes [OPTION...] COMMAND\n" +
		"\n" +
		"Options:\n" +
		"  -d, --debug           enable debug output\n" +
		"  -h, --help            display this help and exit\n" +
		"  --version             output version information and exit\n" +
		"  --timing              report elapsed time for each phase\n" +
		"\n" +
		"Commands:\n" +
		"  consolidate           consolidate symtypes into a single file\n" +
		"  compare               show differences between two symtypes corpuses\n")
}

func printVersion() {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	fmt.Printf("ksymtypes %s\n", version)
}

func printConsolidateUsage() {
	fmt.Print("" +
		"Usage: ksymtypes consolidate [OPTION...] [PATH...]\n" +
		"Consolidate symtypes into a single file.\n" +
		"\n" +
		"Options:\n" +
		"  -h, --help            print this help\n" +
		"  -j, --jobs=NUM        use NUM workers to perform the operation simultaneously\n" +
		"  -o, --output=FILE     write the result in a specified file, instead of stdout\n")
}

func printCompareUsage() {
	fmt.Print("" +
		"Usage: ksymtypes compare [OPTION...] PATH1 PATH2\n" +
		"Show differences between two symtypes corpuses.\n" +
		"\n" +
		"Options:\n" +
		"  -h, --help            print this help\n" +
		"  -j, --jobs=NUM        use NUM workers to perform the operation simultaneously\n")
}

// handleValueOption matches an option with a mandatory value in any of
// the four accepted forms: "-o VALUE", "-oVALUE", "--output VALUE",
// "--output=VALUE". Returns ok=false when arg doesn't match at all.
func handleValueOption(arg string, args []string, idx *int, short, long string) (value string, ok bool, err error) {
	if arg == short || arg == long {
		*idx++
		if *idx >= len(args) {
			return "", false, fmt.Errorf("missing argument for '%s'", long)
		}
		return args[*idx], true, nil
	}
	if v, found := strings.CutPrefix(arg, short); found && short != "" {
		return v, true, nil
	}
	if rem, found := strings.CutPrefix(arg, long+"="); found {
		return rem, true, nil
	}
	return "", false, nil
}

func handleJobsOption(arg string, args []string, idx *int) (jobs int, ok bool, err error) {
	value, matched, err := handleValueOption(arg, args, idx, "-j", "--jobs")
	if err != nil || !matched {
		return 0, matched, err
	}
	n, convErr := strconv.Atoi(value)
	if convErr != nil {
		return 0, true, fmt.Errorf("invalid value for '%s': %v", arg, convErr)
	}
	if n < 1 {
		return 0, true, fmt.Errorf("invalid value for '%s': must be positive", arg)
	}
	return n, true, nil
}

// collectOperands appends every remaining arg to operands, rejecting
// anything that looks like an option unless pastDashDash.
func collectOperands(args []string, pastDashDash bool, operands *[]string) error {
	for _, arg := range args {
		if !pastDashDash && strings.HasPrefix(arg, "-") {
			return fmt.Errorf("option '%s' must precede operands", arg)
		}
		*operands = append(*operands, arg)
	}
	return nil
}

func doConsolidate(doTiming bool, args []string) error {
	output := "-"
	numWorkers := 1
	explicitFlags := map[string]bool{}
	pastDashDash := false
	var maybePath string
	havePath := false

	i := 0
argLoop:
	for ; i < len(args); i++ {
		arg := args[i]

		if value, ok, err := handleValueOption(arg, args, &i, "-o", "--output"); err != nil {
			return err
		} else if ok {
			output = value
			explicitFlags["output"] = true
			continue
		}
		if jobs, ok, err := handleJobsOption(arg, args, &i); err != nil {
			return err
		} else if ok {
			numWorkers = jobs
			explicitFlags["jobs"] = true
			continue
		}

		switch {
		case arg == "-h" || arg == "--help":
			printConsolidateUsage()
			return errHelpShown
		case arg == "--":
			pastDashDash = true
			i++
			break argLoop
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unrecognized consolidate option '%s'", arg)
		default:
			maybePath = arg
			havePath = true
			i++
			break argLoop
		}
	}

	var paths []string
	if havePath {
		paths = append(paths, maybePath)
	}
	if err := collectOperands(args[i:], pastDashDash, &paths); err != nil {
		return err
	}

	if len(paths) == 0 {
		return fmt.Errorf("the consolidate source is missing")
	}

	cfgPath := config.FindConfigFile()
	if cfgPath != "" {
		if cfg, err := config.Load(cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load config %s: %v\n", cfgPath, err)
		} else {
			config.Merge(&numWorkers, &output, cfg, explicitFlags)
		}
	}

	syms := symtypes.NewCorpus()

	func() {
		t := klog.NewTiming(doTiming, fmt.Sprintf("Reading symtypes from %q", paths))
		defer t.Stop()
		if err := syms.LoadMultiple(paths, numWorkers); err != nil {
			if len(paths) == 1 {
				fmt.Fprintf(os.Stderr, "Failed to read symtypes from '%s': %v\n", paths[0], err)
			} else {
				fmt.Fprintf(os.Stderr, "Failed to read specified symtypes: %v\n", err)
			}
			os.Exit(1)
		}
	}()

	func() {
		t := klog.NewTiming(doTiming, fmt.Sprintf("Writing consolidated symtypes to '%s'", output))
		defer t.Stop()
		if err := syms.WriteConsolidated(output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write consolidated symtypes to '%s': %v\n", output, err)
			os.Exit(1)
		}
	}()

	return nil
}

func doCompare(doTiming bool, args []string) error {
	numWorkers := 1
	pastDashDash := false
	var maybePath string
	havePath := false

	i := 0
argLoop:
	for ; i < len(args); i++ {
		arg := args[i]

		if jobs, ok, err := handleJobsOption(arg, args, &i); err != nil {
			return err
		} else if ok {
			numWorkers = jobs
			continue
		}

		switch {
		case arg == "-h" || arg == "--help":
			printCompareUsage()
			return errHelpShown
		case arg == "--":
			pastDashDash = true
			i++
			break argLoop
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unrecognized compare option '%s'", arg)
		default:
			maybePath = arg
			havePath = true
			i++
			break argLoop
		}
	}

	var paths []string
	if havePath {
		paths = append(paths, maybePath)
	}
	if err := collectOperands(args[i:], pastDashDash, &paths); err != nil {
		return err
	}

	// A wrong operand count is a fatal usage error rather than a warning,
	// since there's no sensible way to run a two-way comparison otherwise.
	if len(paths) != 2 {
		return fmt.Errorf("the compare command takes two sources, %d given", len(paths))
	}

	klog.Debugf("Compare '%s' and '%s'", paths[0], paths[1])

	syms1 := symtypes.NewCorpus()
	func() {
		t := klog.NewTiming(doTiming, fmt.Sprintf("Reading symtypes from '%s'", paths[0]))
		defer t.Stop()
		if err := syms1.Load(paths[0], numWorkers); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read symtypes from '%s': %v\n", paths[0], err)
			os.Exit(1)
		}
	}()

	syms2 := symtypes.NewCorpus()
	func() {
		t := klog.NewTiming(doTiming, fmt.Sprintf("Reading symtypes from '%s'", paths[1]))
		defer t.Stop()
		if err := syms2.Load(paths[1], numWorkers); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read symtypes from '%s': %v\n", paths[1], err)
			os.Exit(1)
		}
	}()

	func() {
		t := klog.NewTiming(doTiming, "Comparison")
		defer t.Stop()
		if err := syms1.CompareWith(syms2, "<stdout>", os.Stdout, numWorkers); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to compare symtypes: %v\n", err)
			os.Exit(1)
		}
	}()

	return nil
}

// errHelpShown signals that a usage message was already printed and the
// process should exit 0, not be treated as a usage error.
var errHelpShown = fmt.Errorf("help shown")

func main() {
	args := os.Args[1:]

	var maybeCommand string
	doTiming := false
	debugLevel := 0

	i := 0
	for ; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-d" || arg == "--debug":
			debugLevel++
		case arg == "--timing":
			doTiming = true
		case arg == "-h" || arg == "--help":
			printUsage()
			os.Exit(0)
		case arg == "--version":
			printVersion()
			os.Exit(0)
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "Unrecognized global option '%s'\n", arg)
			os.Exit(1)
		default:
			maybeCommand = arg
			i++
			goto haveCommand
		}
	}
haveCommand:

	klog.SetLevel(debugLevel)

	if maybeCommand == "" {
		fmt.Fprintln(os.Stderr, "No command specified")
		os.Exit(1)
	}

	var err error
	switch maybeCommand {
	case "consolidate":
		err = doConsolidate(doTiming, args[i:])
	case "compare":
		err = doCompare(doTiming, args[i:])
	default:
		fmt.Fprintf(os.Stderr, "Unrecognized command '%s'\n", maybeCommand)
		os.Exit(1)
	}

	if err != nil {
		if err == errHelpShown {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Exit(0)
}
