package config

import (
	"flag"
	"io"
	"strings"
)

// parseFlags overlays command-line flags onto c.
//
//	-a string   HTTP listen address
//	-d string   PostgreSQL DSN
//	-s string   JWT secret
//	-t duration token validity window
//	-r string   Redis address
//	-l string   log level
func parseFlags(c *Config, args []string) error {
	args = filterArgs(args, []string{"-a", "-d", "-s", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.HTTPAddr, "a", c.HTTPAddr, "http listen address")
	fs.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "database DSN")
	fs.StringVar(&c.JWTSecret, "s", c.JWTSecret, "jwt secret")
	fs.DurationVar(&c.TokenTTL, "t", c.TokenTTL, "token validity window")
	fs.StringVar(&c.RedisAddr, "r", c.RedisAddr, "redis address")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")

	return fs.Parse(args)
}

// filterArgs keeps only the allowed flags (and their values) so that each
// flag set can parse os.Args without tripping over the others' flags.
// Both "-f value" and "-f=value" forms are recognised.
func filterArgs(args []string, allowed []string) []string {
	ok := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		ok[f] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, found := ok[name]; found {
				out = append(out, arg)
			}
			continue
		}

		if _, found := ok[arg]; found {
			out = append(out, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				out = append(out, args[i+1])
				i++
			}
		}
	}
	return out
}
