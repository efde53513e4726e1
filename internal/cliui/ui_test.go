package cliui_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/doclib/distil/internal/cliui"
)

func TestArgsRequest(t *testing.T) {
	for _, tc := range []struct {
		name string
		now  time.Time
		args []string
		out  []string
	}{
		{
			name: "nothing",
			now:  time.Date(2026, 8, 6, 7, 5, 3, 0, time.UTC),
			out: []string{
				"now: 2026-08-06T07:05:03Z",
				"",
			},
		},

		{
			name: "some args",
			now:  time.Date(2026, 8, 6, 7, 5, 3, 0, time.UTC),
			args: []string{"import-bib", "my paper.bib"},
			out: []string{
				"now: 2026-08-06T07:05:03Z",
				"",
				`1) command: "import-bib \"my paper.bib\""`,
				`  1. arg: "import-bib"`,
				`  2. arg: "my paper.bib"`,
				"",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			ArgsRequest(tc.now, tc.args).Serve(&out, HandlerFunc(dumpRequest))
			assert.Equal(t, tc.out, strings.Split(out.String(), "\n"), "expected output")
		})
	}
}

func dumpRequest(req *Request, resp *Response) error {
	fmt.Fprintf(resp, "now: %v\n", req.Now().Format(time.RFC3339))
	for i := 1; req.Scan(); i++ {
		fmt.Fprintf(resp, "\n%v) command: %q\n", i, req.Command())
		for j := 1; req.ScanArg(); j++ {
			fmt.Fprintf(resp, "  %v. arg: %q\n", j, req.Arg())
		}
	}
	return nil
}
