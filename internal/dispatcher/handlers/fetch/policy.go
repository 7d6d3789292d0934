package fetch

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
)

// ErrHostNotAllowed is returned for fetches outside fetch.allowed_hosts.
var ErrHostNotAllowed = errors.New("host not allowed")

// AllowHosts returns a validation function that admits fetches of the listed
// hosts and their subdomains. An empty list admits every host. Targets that
// do not parse are admitted so the handler reports them.
func AllowHosts(allowed []string) func(*command.Command, *execctx.ExecutionContext) error {
	hosts := make([]string, 0, len(allowed))
	for _, h := range allowed {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, strings.TrimPrefix(h, "."))
		}
	}

	return func(cmd *command.Command, _ *execctx.ExecutionContext) error {
		if len(hosts) == 0 || cmd.Kind != command.KindFetch {
			return nil
		}
		target, err := normalize(cmd.Arg)
		if err != nil {
			return nil
		}
		u, err := url.Parse(target)
		if err != nil {
			return nil
		}
		host := strings.ToLower(u.Hostname())
		for _, h := range hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}
}
