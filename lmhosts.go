package samba

import (
	"bufio"
	"context"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/pbrezina/samba/internal/errors"
)

// resolveLmhosts scans r.lmhostsPath line by line for an entry matching
// name, in the classic Windows lmhosts format: "<ip> <name> [#PRE]
// [#DOM:domain]" with '#' introducing a comment to end of line. A
// trailing "#0xTT" after the name pins a specific NBT type; entries
// without one match whatever type the lookup asks for.
func (r *Resolver) resolveLmhosts(ctx context.Context, name string, nbtType uint16) ([]Endpoint, error) {
	if r.lmhostsPath == "" {
		return nil, errors.New("resolve_lmhosts", errors.NotFound)
	}

	f, err := os.Open(r.lmhostsPath)
	if err != nil {
		return nil, errors.Wrap("resolve_lmhosts", errors.NotFound, err)
	}
	defer f.Close()

	var out []Endpoint
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap("resolve_lmhosts", errors.IoTimeout, ctx.Err())
		default:
		}

		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			// A bare #0xTT suffix pins a type; anything else is a comment.
			if !strings.HasPrefix(strings.TrimSpace(line[idx:]), "#0x") {
				line = line[:idx]
			}
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		ip := net.ParseIP(fields[0])
		if ip == nil {
			continue
		}
		entryName := fields[1]
		entryType := nbtType
		if len(fields) >= 3 && strings.HasPrefix(fields[2], "#0x") {
			if t, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "#0x"), 16, 16); err == nil {
				entryType = uint16(t)
			}
		}

		if !strings.EqualFold(entryName, name) {
			continue
		}
		if entryType != nbtType {
			continue
		}
		if ip.IsUnspecified() {
			continue
		}
		out = append(out, Endpoint{IP: ip})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap("resolve_lmhosts", errors.InternalError, err)
	}
	if len(out) == 0 {
		return nil, errors.New("resolve_lmhosts", errors.NotFound)
	}
	return out, nil
}
