// Command pdfshell is a terminal PDF viewer built on the same viewer core as
// the browser panel.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/abiosoft/ishell"

	config "github.com/drummonds/pdfpanel/config"
	"github.com/drummonds/pdfpanel/pdfengine"
	"github.com/drummonds/pdfpanel/source"
	"github.com/drummonds/pdfpanel/viewer"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	pdfengine.Logger = Logger
	source.Logger = Logger
	viewer.Logger = Logger
}

func main() {
	serverConfig, logger := config.SetupShell()
	injectGlobals(logger)

	fetcher := source.NewFetcher(serverConfig.PublicPath)
	fetcher.AllowRemote = serverConfig.AllowRemotePDF
	fetcher.MaxBytes = serverConfig.MaxPDFBytes

	renderer, err := pdfengine.New(serverConfig.Renderer, fetcher)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer renderer.Close()

	s := newSession(context.Background(), renderer)
	defer s.shutdown()

	shell := ishell.New()
	shell.SetPrompt("pdf> ")
	shell.Println("pdfpanel terminal viewer, documents are read from", serverConfig.PublicPath)
	for _, cmd := range commands(s) {
		shell.AddCmd(cmd)
	}

	if len(os.Args) > 1 {
		shell.Println(output(s.open(os.Args[1])))
	}
	shell.Run()
}

func output(msg string, err error) string {
	if err != nil {
		return "Error: " + err.Error()
	}
	return msg
}

func run(fn func() (string, error)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		c.Println(output(fn()))
	}
}

func runArg(usage string, fn func(string) (string, error)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if len(c.Args) == 0 {
			c.Println("usage: " + usage)
			return
		}
		c.Println(output(fn(strings.Join(c.Args, " "))))
	}
}

func commands(s *session) []*ishell.Cmd {
	return []*ishell.Cmd{
		{Name: "open", Help: "open a document: open <locator>", Func: runArg("open <locator>", s.open)},
		{Name: "next", Help: "go to the next page", Func: run(s.next)},
		{Name: "prev", Help: "go to the previous page", Func: run(s.previous)},
		{Name: "page", Help: "go to a page: page <n>", Func: runArg("page <n>", s.page)},
		{Name: "zoomin", Help: "zoom in by 20%", Func: run(func() (string, error) { return s.zoom(true) })},
		{Name: "zoomout", Help: "zoom out by 20%", Func: run(func() (string, error) { return s.zoom(false) })},
		{Name: "info", Help: "show document information", Func: run(s.info)},
		{Name: "status", Help: "show the current page", Func: run(s.status)},
		{Name: "save", Help: "save the rendered page: save <file.png>", Func: runArg("save <file.png>", s.save)},
		{Name: "close", Help: "close the document", Func: run(s.close)},
	}
}
