package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eringen/notionpub"
	"github.com/eringen/notionpub/markdown"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		run(serve)
	case "warm":
		run(warm)
	case "export":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: notionpub export <slug>")
			os.Exit(1)
		}
		run(func(a *notionpub.App) error { return export(a, os.Args[2]) })
	case "version":
		fmt.Printf("notionpub %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func run(fn func(*notionpub.App) error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	cfg, err := notionpub.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	a := notionpub.New(cfg, notionpub.ViewFuncs{})
	err = fn(a)
	a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(a *notionpub.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("notionpub %s listening on %s", version, a.Config.Addr)
		errc <- a.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	return <-errc
}

func warm(a *notionpub.App) error {
	if err := a.Init(); err != nil {
		return err
	}
	start := time.Now()
	n, err := a.Warm(context.Background())
	if err != nil {
		return err
	}
	log.Printf("warmed %d pages in %s", n, time.Since(start).Round(time.Millisecond))
	return nil
}

func export(a *notionpub.App, slug string) error {
	if err := a.Init(); err != nil {
		return err
	}
	ctx := context.Background()
	id, err := a.Content.ResolveSlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", slug, err)
	}
	obj, err := a.Content.Object(ctx, id)
	if err != nil {
		return err
	}
	if obj.Page == nil {
		return fmt.Errorf("%q is a database, not a page", slug)
	}
	tree, err := a.Content.Tree(ctx, id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(os.Stdout, markdown.Page(obj.Title(), tree))
	return err
}

func printUsage() {
	fmt.Println(`notionpub - A Notion-backed blog built with Go, Echo, and templ

Usage:
  notionpub [command] [arguments]

Commands:
  serve           Start the web server (default)
  warm            Load every page into the content cache once
  export <slug>   Print a page as Markdown
  version         Print the notionpub version
  help            Show this help message

Configuration is read from the environment and an optional .env file:
  NOTION_API_SECRET_KEY, NOTION_BASE_BLOCK and BLOG_NAME are required.

Examples:
  notionpub
  notionpub warm
  notionpub export hello-world > hello-world.md`)
}
