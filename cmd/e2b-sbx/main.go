// Command e2b-sbx is a thin CLI over the e2b-go SDK, exercising sandbox
// lifecycle, filesystem and command operations end to end: one
// flag.FlagSet per subcommand, a tabwriter for tabular output.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/e2b-dev/e2b-go/pkg/e2b"
	"github.com/e2b-dev/e2b-go/pkg/process"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	sandboxID := fs.String("id", "", "sandbox id")
	templateID := fs.String("template", "", "template id (create)")
	path := fs.String("path", "", "filesystem path")
	timeoutSeconds := fs.Int("timeout", 30, "request timeout in seconds")
	fs.Parse(os.Args[2:])

	cfg, err := e2b.LoadConfig()
	fatalIf(err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeoutSeconds)*time.Second)
	defer cancel()

	switch cmd {
	case "create":
		if *templateID == "" {
			fatal("-template is required")
		}
		sbx, err := e2b.Create(ctx, cfg, *templateID, e2b.CreateOptions{})
		fatalIf(err)
		fmt.Printf("id=%s client=%s template=%s\n", sbx.SandboxID, sbx.ClientID, sbx.TemplateID)

	case "connect":
		requireID(*sandboxID)
		sbx, err := e2b.Connect(ctx, cfg, *sandboxID)
		fatalIf(err)
		fmt.Printf("id=%s client=%s template=%s\n", sbx.SandboxID, sbx.ClientID, sbx.TemplateID)

	case "list":
		listed, err := e2b.List(ctx, cfg, e2b.ListOptions{})
		fatalIf(err)
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCLIENT\tSTATE\tTEMPLATE")
		for _, s := range listed {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.SandboxID, s.ClientID, s.State, s.TemplateID)
		}
		_ = w.Flush()

	case "kill":
		requireID(*sandboxID)
		sbx := connectOrFatal(ctx, cfg, *sandboxID)
		fatalIf(sbx.Kill(ctx))
		fmt.Println("killed")

	case "logs":
		requireID(*sandboxID)
		sbx := connectOrFatal(ctx, cfg, *sandboxID)
		logs, err := sbx.Logs(ctx)
		fatalIf(err)
		for _, l := range logs {
			fmt.Printf("%s %s\n", l.Timestamp.Format(time.RFC3339), l.Line)
		}

	case "ls":
		requireID(*sandboxID)
		if *path == "" {
			fatal("-path is required")
		}
		sbx := connectOrFatal(ctx, cfg, *sandboxID)
		entries, err := sbx.Files.ListDir(ctx, *path)
		fatalIf(err)
		for _, e := range entries {
			fmt.Printf("%s\t%s\n", e.Type, e.Path)
		}

	case "run":
		requireID(*sandboxID)
		args := fs.Args()
		if len(args) == 0 {
			fatal("command is required, e.g. e2b-sbx run -id sbx1 -- echo hi")
		}
		sbx := connectOrFatal(ctx, cfg, *sandboxID)
		result, err := sbx.Commands.Run(ctx, args[0], args[1:], e2b.RunOptions{})
		fatalIf(err)
		fmt.Print(result.Stdout)
		if result.Stderr != "" {
			fmt.Fprint(os.Stderr, result.Stderr)
		}
		if result.Error != "" {
			fmt.Fprintf(os.Stderr, "error: %s\n", result.Error)
		}
		os.Exit(int(result.ExitCode))

	case "kill-process":
		requireID(*sandboxID)
		args := fs.Args()
		if len(args) != 1 {
			fatal("expected exactly one pid argument")
		}
		sbx := connectOrFatal(ctx, cfg, *sandboxID)
		var pid uint32
		_, err := fmt.Sscanf(args[0], "%d", &pid)
		fatalIf(err)
		fatalIf(sbx.Commands.Signal(ctx, pid, process.SignalSIGKILL))
		fmt.Println("killed")

	default:
		usage()
		os.Exit(1)
	}
}

func connectOrFatal(ctx context.Context, cfg *e2b.Config, id string) *e2b.Sandbox {
	sbx, err := e2b.Connect(ctx, cfg, id)
	fatalIf(err)
	return sbx
}

func requireID(id string) {
	if id == "" {
		fatal("-id is required")
	}
}

func usage() {
	fmt.Println("usage: e2b-sbx <create|connect|list|kill|logs|ls|run|kill-process> [flags]")
	fmt.Println("  -template py-template         (create)")
	fmt.Println("  -id sbx_123                   (connect|kill|logs|ls|run|kill-process)")
	fmt.Println("  -path /home/user              (ls)")
	fmt.Println("  -timeout 30                   (request timeout, seconds)")
	fmt.Println("  run supports args after --, e.g. e2b-sbx run -id sbx1 -- echo hello")
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func fatalIf(err error) {
	if err != nil {
		fatal(err.Error())
	}
}
