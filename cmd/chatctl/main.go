package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/matheus3301/crmchat/internal/api"
	"github.com/matheus3301/crmchat/internal/profile"
	"github.com/matheus3301/crmchat/internal/tui/ui"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fail(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c, err := api.Dial(profile.SocketPath(name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to daemon for profile %q: %v\n", name, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	// watch runs until interrupted; everything else gets a deadline.
	if args[0] == "watch" {
		cmdWatch(c, args[1:], *jsonFlag)
		return
	}
	timeout := 15 * time.Second
	if args[0] == "send-file" || args[0] == "download" {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out := output{json: *jsonFlag}
	switch args[0] {
	case "status":
		cmdStatus(ctx, c, out)
	case "conversations", "ls":
		cmdConversations(ctx, c, out)
	case "open":
		need(args, 2, "open <direct:<id>|group:<id>>")
		resp, err := c.OpenConversation(ctx, args[1])
		check(err)
		out.print(resp, func() { fmt.Printf("Opened %s (%s)\n", resp.Name, resp.Key) })
	case "close":
		check(c.CloseConversation(ctx))
		out.print(api.Empty{}, func() { fmt.Println("Closed.") })
	case "log":
		cmdLog(ctx, c, args[1:], out)
	case "send":
		need(args, 2, "send <text>")
		resp, err := c.SendText(ctx, strings.Join(args[1:], " "))
		check(err)
		out.print(resp, func() {
			if resp.Queued {
				fmt.Printf("Queued for %s (offline, id %s)\n", resp.Key, resp.ClientMsgID)
				return
			}
			fmt.Printf("Sent to %s\n", resp.Key)
		})
	case "stage":
		need(args, 2, "stage <path>")
		resp, err := c.Stage(ctx, args[1])
		check(err)
		out.print(resp, func() {
			fmt.Printf("Staged %s (%s, %s)\n", resp.Upload.Name, resp.Upload.Kind, humanSize(resp.Upload.Size))
		})
	case "cancel":
		resp, err := c.CancelStage(ctx)
		check(err)
		out.print(resp, func() {
			if resp.Cancelled {
				fmt.Println("Staged file discarded.")
			} else {
				fmt.Println("Nothing staged.")
			}
		})
	case "send-file":
		cmdSendFile(ctx, c, args[1:], out)
	case "create-group":
		cmdCreateGroup(ctx, c, args[1:], out)
	case "refresh":
		resp, err := c.Refresh(ctx)
		check(err)
		out.print(resp, func() { fmt.Printf("Directory: %d contacts, %d groups\n", resp.Contacts, resp.Groups) })
	case "search":
		cmdSearch(ctx, c, args[1:], out)
	case "download":
		cmdDownload(ctx, c, args[1:], out)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chatctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                         Show daemon status")
	fmt.Fprintln(os.Stderr, "  conversations                  List conversations with unread counts")
	fmt.Fprintln(os.Stderr, "  open <key>                     Make a conversation active (direct:<id> or group:<id>)")
	fmt.Fprintln(os.Stderr, "  close                          Leave the active conversation")
	fmt.Fprintln(os.Stderr, "  log [-n N] [key]               Print a conversation log")
	fmt.Fprintln(os.Stderr, "  send <text>                    Send text to the active conversation")
	fmt.Fprintln(os.Stderr, "  stage <path>                   Stage a file for the active conversation")
	fmt.Fprintln(os.Stderr, "  cancel                         Discard the staged file")
	fmt.Fprintln(os.Stderr, "  send-file [-m text] [path]     Upload a file (the staged one when path is omitted)")
	fmt.Fprintln(os.Stderr, "  create-group [-image p] <name> <member,...>")
	fmt.Fprintln(os.Stderr, "  refresh                        Refetch contacts, groups and unread counts")
	fmt.Fprintln(os.Stderr, "  search [-in key] [-n N] <query>")
	fmt.Fprintln(os.Stderr, "  download [-o dir] <file> [name]")
	fmt.Fprintln(os.Stderr, "  watch [namespace]              Stream daemon events")
}

type output struct{ json bool }

func (o output) print(v any, text func()) {
	if o.json {
		outputJSON(v)
		return
	}
	text()
}

func cmdStatus(ctx context.Context, c *api.Client, out output) {
	resp, err := c.Status(ctx)
	check(err)
	out.print(resp, func() {
		fmt.Printf("Profile:  %s (%s)\n", resp.Profile, resp.UserID)
		fmt.Printf("Status:   %s\n", resp.State)
		fmt.Printf("Uptime:   %s\n", time.Duration(resp.UptimeMs)*time.Millisecond)
		if !resp.Active.IsZero() {
			fmt.Printf("Active:   %s\n", resp.Active)
		}
		fmt.Printf("Unread:   %d across %d conversations\n", resp.TotalUnread, resp.Conversations)
		fmt.Printf("Archived: %d messages\n", resp.Archived)
	})
}

func cmdConversations(ctx context.Context, c *api.Client, out output) {
	resp, err := c.Conversations(ctx)
	check(err)
	out.print(resp, func() {
		if len(resp.Conversations) == 0 {
			fmt.Println("No conversations.")
			return
		}
		for _, s := range resp.Conversations {
			marker := " "
			if s.Key == resp.Active {
				marker = "*"
			}
			unread := ""
			if s.Unread > 0 {
				unread = fmt.Sprintf("(%d)", s.Unread)
			}
			fmt.Printf("%s %-28s %-24s %5s\n", marker, s.Key, s.Name, unread)
		}
	})
}

func cmdLog(ctx context.Context, c *api.Client, args []string, out output) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	n := fs.Int("n", 50, "number of messages")
	_ = fs.Parse(args)

	resp, err := c.Log(ctx, fs.Arg(0), *n)
	check(err)
	out.print(resp, func() {
		for _, m := range resp.Messages {
			who := m.Sender.Name
			if who == "" {
				who = m.Sender.ID
			}
			body := m.Body
			if m.HasAttachment() {
				body = strings.TrimSpace(body + " [file: " + m.FileName + " " + m.File + "]")
			}
			fmt.Printf("%s  %-16s %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), who, body)
		}
	})
}

func cmdSendFile(ctx context.Context, c *api.Client, args []string, out output) {
	fs := flag.NewFlagSet("send-file", flag.ExitOnError)
	msg := fs.String("m", "", "text sent with the file")
	_ = fs.Parse(args)

	resp, err := c.SendFile(ctx, *msg, fs.Arg(0))
	check(err)
	out.print(resp, func() {
		fmt.Printf("Uploaded %s (%s, %s) to %s\n", resp.Name, resp.Kind, humanSize(resp.Size), resp.Key)
	})
}

func cmdCreateGroup(ctx context.Context, c *api.Client, args []string, out output) {
	fs := flag.NewFlagSet("create-group", flag.ExitOnError)
	image := fs.String("image", "", "group image path")
	_ = fs.Parse(args)
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: chatctl create-group [-image p] <name> <member,...>")
		os.Exit(1)
	}

	var members []string
	for _, m := range strings.Split(fs.Arg(1), ",") {
		if m = strings.TrimSpace(m); m != "" {
			members = append(members, m)
		}
	}
	resp, err := c.CreateGroup(ctx, api.CreateGroupRequest{Name: fs.Arg(0), ImagePath: *image, Members: members})
	check(err)
	out.print(resp, func() {
		fmt.Printf("Created group %s (%s) with %d members\n", resp.Group.Name, resp.Group.ID, len(resp.Group.Participants))
	})
}

func cmdSearch(ctx context.Context, c *api.Client, args []string, out output) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	in := fs.String("in", "", "restrict to a conversation key")
	n := fs.Int("n", 20, "max results")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: chatctl search [-in key] [-n N] <query>")
		os.Exit(1)
	}

	resp, err := c.Search(ctx, strings.Join(fs.Args(), " "), *in, *n)
	check(err)
	out.print(resp, func() {
		if len(resp.Results) == 0 {
			fmt.Println("No matches.")
			return
		}
		for _, r := range resp.Results {
			fmt.Printf("%-24s %s  %s\n", r.Key, r.Message.CreatedAt.Local().Format("2006-01-02 15:04"), r.Snippet)
		}
	})
}

func cmdDownload(ctx context.Context, c *api.Client, args []string, out output) {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	dir := fs.String("o", "", "target directory (default: profile downloads)")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: chatctl download [-o dir] <file> [name]")
		os.Exit(1)
	}

	resp, err := c.Download(ctx, fs.Arg(0), fs.Arg(1), *dir)
	check(err)
	out.print(resp, func() {
		if !resp.Fallback {
			fmt.Printf("Saved %s\n", resp.Path)
			return
		}
		fmt.Printf("Download failed (%s). Open it directly:\n  %s\n\n%s", resp.Reason, resp.URL, ui.RenderQR(resp.URL))
	})
}

func cmdWatch(c *api.Client, args []string, jsonOut bool) {
	namespace := ""
	if len(args) > 0 {
		namespace = args[0]
	}
	stream, err := c.Watch(context.Background(), namespace)
	check(err)
	for {
		evt, err := stream.Recv()
		if err != nil {
			fail(err)
		}
		if jsonOut {
			outputJSON(evt)
			continue
		}
		fmt.Printf("%s  %-28s %s\n", time.UnixMilli(evt.OccurredAtMs).Format("15:04:05.000"), evt.Kind, evt.Payload)
	}
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func need(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintln(os.Stderr, "usage: chatctl "+usage)
		os.Exit(1)
	}
}

func check(err error) {
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
