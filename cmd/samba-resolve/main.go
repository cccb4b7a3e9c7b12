// samba-resolve is a small example binary demonstrating the samba
// resolver library. It is not a resolver frontend or daemon shell — just
// enough to exercise ResolveName/ResolveNameList from a terminal.
//
// Usage:
//
//	go run ./cmd/samba-resolve -type 0x20 FILESERVER
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pbrezina/samba"
)

func main() {
	nbtType := flag.String("type", "0x20", "NBT name type byte, e.g. 0x00, 0x1b, 0x20")
	order := flag.String("order", "", "comma-separated resolve order, e.g. host,wins,bcast")
	timeout := flag.Duration("timeout", 5*time.Second, "overall resolution timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: samba-resolve [-type 0x20] [-order host,wins] NAME")
		os.Exit(2)
	}
	name := flag.Arg(0)

	typeVal, err := strconv.ParseUint(trimHexPrefix(*nbtType), 16, 8)
	if err != nil {
		log.Fatalf("invalid -type %q: %v", *nbtType, err)
	}

	opts := []samba.Option{samba.WithLogger(log.New(os.Stderr, "", 0))}
	if *order != "" {
		opts = append(opts, samba.WithResolveOrder(splitOrder(*order)))
	}

	r, err := samba.New(opts...)
	if err != nil {
		log.Fatalf("samba.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	endpoints, err := r.ResolveNameList(ctx, name, uint16(typeVal))
	if err != nil {
		log.Fatalf("resolve %s<%02x>: %v", name, typeVal, err)
	}

	for _, ep := range endpoints {
		fmt.Println(ep)
	}
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		return s[2:]
	}
	return s
}

func splitOrder(s string) []string {
	var out []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
