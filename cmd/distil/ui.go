package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/doclib/distil/internal/cliui"
	"github.com/doclib/distil/internal/distutil"
)

// app carries per-request command state: the argument trail for usage lines,
// the command mux, and the lazily opened doclib.
type app struct {
	args []string
	mux  serveMux
	lib  *library
}

type server interface {
	serve(*app, *cliui.Request, *cliui.Response) error
}

type helpServer interface {
	server
	describe() string
	help() server
}

type serverFunc func(*app, *cliui.Request, *cliui.Response) error

type serverHelp struct {
	server
	d string
	h server
}

func (fn serverFunc) serve(ctx *app, req *cliui.Request, res *cliui.Response) error {
	return fn(ctx, req, res)
}

func (sh serverHelp) describe() string { return sh.d }
func (sh serverHelp) help() server     { return sh.h }

func textServer(text string) tmplServer {
	tmpl := template.Must(template.New("").Funcs(serverTemplateFuncs).Parse(text))
	return tmplServer{tmpl}
}

type tmplServer struct {
	tmpl *template.Template
}

func (srv tmplServer) serve(ctx *app, req *cliui.Request, res *cliui.Response) error {
	return srv.tmpl.Execute(res, struct {
		Ctx *app
	}{ctx})
}

type serveMux map[string]server

func (mux serveMux) handle(name string, srv server) {
	if mux[name] != nil {
		panic(fmt.Sprintf("%q server already defined", name))
	}
	mux[name] = srv
}

func (mux serveMux) helpTopic(name string, srv server) {
	topics, _ := mux[".helpTopics"].(serveMux)
	if topics[name] != nil {
		panic(fmt.Sprintf("%q topic already defined", name))
	}
	if topics == nil {
		topics = serveMux{}
		mux[".helpTopics"] = topics
	}
	topics[name] = srv
}

func (ctx app) Command() string {
	return string(distutil.QuotedArgs(ctx.args))
}

func (ctx app) CommandHead() string {
	return ctx.args[len(ctx.args)-1]
}

func (ctx app) Commands() []string {
	if ctx.mux == nil {
		return nil
	}
	return ctx.mux.Commands()
}

func (ctx app) Describe(name string) string {
	if ctx.mux == nil {
		return ""
	}
	return ctx.mux.Describe(name)
}

func (mux serveMux) Commands() []string {
	var names []string
	for name := range mux {
		if name != "" && !strings.HasPrefix(name, ".") {
			names = append(names, name)
		}
	}
	if mux["help"] == nil {
		names = append(names, "help")
	}
	sort.Strings(names)
	return names
}

func (mux serveMux) Describe(name string) string {
	if hs, _ := mux[name].(helpServer); hs != nil {
		return hs.describe()
	}
	if name == "help" {
		return "show help overview or on a specific topic or command"
	}
	return ""
}

func (mux serveMux) helpTopics() serveMux {
	topics, _ := mux[".helpTopics"].(serveMux)
	return topics
}

func (mux serveMux) serve(ctx *app, req *cliui.Request, res *cliui.Response) error {
	any := false
	for req.Scan() && req.ScanArg() {
		any = true
		if err := mux.serveCommand(ctx, req, res); err != nil {
			return err
		}
	}
	if any {
		return nil
	}
	if cmd := mux[""]; cmd != nil {
		return cmd.serve(ctx, req, res)
	}
	return mux.serveHelp(ctx, req, res)
}

func (mux serveMux) serveCommand(ctx *app, req *cliui.Request, res *cliui.Response) error {
	name := req.Arg()
	ctx.args = append(ctx.args[:len(ctx.args):len(ctx.args)], name)
	ctx.mux = mux

	cmd := mux[name]
	if cmd != nil {
		return cmd.serve(ctx, req, res)
	}
	if name == "help" {
		return mux.serveHelp(ctx, req, res)
	}
	fmt.Fprintf(res, "unrecognized command %q\n", name)
	return nil
}

func (mux serveMux) serveHelp(ctx *app, req *cliui.Request, res *cliui.Response) error {
	var name string
	if req.ScanArg() {
		name = req.Arg()
	}

	srv := mux.helpTopics()[name]
	if srv == nil {
		if hs, ok := mux[name].(helpServer); ok {
			srv = hs.help()
		}
	}

	if srv != nil {
		return srv.serve(ctx, req, res)
	}

	if name != "" {
		fmt.Fprintf(res, "> %s %s\nno help available\n", ctx.Command(), name)
		return nil
	}

	fmt.Fprintf(res, "# Usage\n")
	if ctx.CommandHead() != "help" {
		fmt.Fprintf(res, "> %s [command args...]\n", ctx.Command())
	} else if topics := mux.helpTopics(); len(topics) > 0 {
		fmt.Fprintf(res, "> %s [topic|command]\n", ctx.Command())
		fmt.Fprintf(res, "\n## Available Help Topics\n")
		printAvail(res, topics)
	} else {
		fmt.Fprintf(res, "> %s [command]\n", ctx.Command())
	}

	fmt.Fprintf(res, "\n## Available Commands\n")
	printAvail(res, ctx)

	return nil
}

type commandList interface {
	Commands() []string
	Describe(string) string
}

var serverTemplateFuncs = template.FuncMap{
	"commandList": func(cl commandList) string {
		var sb strings.Builder
		if !printAvail(&sb, cl) {
			return ""
		}
		return sb.String()
	},
}

func printAvail(w io.Writer, cl commandList) bool {
	names := cl.Commands()
	if len(names) == 0 {
		return false
	}
	width := 0
	for _, name := range names {
		if width < len(name) {
			width = len(name)
		}
	}
	for _, name := range names {
		if name != "" {
			if desc := cl.Describe(name); desc != "" {
				fmt.Fprintf(w, "- % -*s: %s\n", width, name, desc)
			} else {
				fmt.Fprintf(w, "- %s\n", name)
			}
		}
	}
	return true
}

func serve(srv interface{}, args ...interface{}) (actual server) {
	switch val := srv.(type) {
	case server:
		actual = val
	case func(*app, *cliui.Request, *cliui.Response) error:
		actual = serverFunc(val)
	case string:
		actual = textServer(val)
	default:
		panic(fmt.Sprintf("unsupported serve base arg type %T", srv))
	}
	for _, arg := range args {
		switch val := arg.(type) {
		case string:
			hs, hadHelp := actual.(serverHelp)
			if !hadHelp {
				hs.server = actual
			}
			if hs.d == "" {
				hs.d = val
			} else if hs.h == nil {
				hs.h = textServer(val)
			} else {
				panic("server already has both a description and help")
			}
			actual = hs
		}
	}
	return actual
}

var builtins []func(mux serveMux)

func builtinServer(name string, srv interface{}, args ...interface{}) {
	actual := serve(srv, args...)
	builtins = append(builtins, func(mux serveMux) {
		mux.handle(name, actual)
	})
}

func builtinHelpTopic(name string, srv interface{}) {
	actual := serve(srv)
	builtins = append(builtins, func(mux serveMux) {
		mux.helpTopic(name, actual)
	})
}

type ui struct {
	app
}

func (ui *ui) init() error {
	if ui.mux == nil {
		ui.mux = make(serveMux)
		for _, addBuiltin := range builtins {
			addBuiltin(ui.mux)
		}
	}
	return nil
}

func (ui *ui) ServeUser(req *cliui.Request, res *cliui.Response) error {
	if ui.mux == nil {
		if err := ui.init(); err != nil {
			return err
		}
	}
	ctx := ui.app
	return ui.mux.serve(&ctx, req, res)
}
