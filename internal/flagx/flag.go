// Package flagx picks the flags a component owns out of a shared argument
// list, so several parsers can read os.Args without tripping over each
// other's flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the flags named in allowed or bools, together with
// their values, in their original order. "-name value", "-name=value" and
// the double-dash spellings are recognized alike. A token starting with '-'
// is never taken as a flag's value, and flags named in bools only take a
// value in the "-name=value" form.
func FilterArgs(args []string, allowed []string, bools ...string) []string {
	names := make(map[string]bool, len(allowed)+len(bools))
	for _, f := range allowed {
		names[flagName(f)] = true
	}
	isBool := make(map[string]bool, len(bools))
	for _, f := range bools {
		names[flagName(f)] = true
		isBool[flagName(f)] = true
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, inline := strings.Cut(arg, "=")
		if !names[flagName(name)] {
			continue
		}
		filtered = append(filtered, arg)
		if !inline && !isBool[flagName(name)] && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

func flagName(s string) string {
	return strings.TrimLeft(s, "-")
}

// ConfigFileFlag returns the config file path given with -c or -config, or
// "" when neither is present. The last occurrence wins.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
