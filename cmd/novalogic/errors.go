package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
)

var queryFailed = regexp.MustCompile(`query failed: [a-z]+ error: (.*)`)

// distinctQueryErrors collects the distinct adapter error messages of failed
// queries in a runner log, sorted.
func distinctQueryErrors(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		if m := queryFailed.FindStringSubmatch(sc.Text()); m != nil {
			seen[m[1]] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for msg := range seen {
		out = append(out, msg)
	}
	slices.Sort(out)
	return out, nil
}

func runErrors(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: novalogic errors <path_to_error_log>")
		return 2
	}
	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = f.Close() }()

	msgs, err := distinctQueryErrors(f)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %v\n", err)
		return 1
	}
	for _, m := range msgs {
		fmt.Fprintln(stdout, m)
	}
	return 0
}
