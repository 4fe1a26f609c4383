// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// ideaforge-ctl is a command-line tool for driving a running Ideaforge
// instance.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wingedpig/ideaforge/pkg/client"
)

var version = "0.1.0"

const (
	defaultAPI  = "http://localhost:8420"
	defaultUser = "local"
)

// ctl holds the state shared by every command.
type ctl struct {
	client     *client.Client
	jsonOutput bool
	stdin      io.Reader
	stdout     io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command line and returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	apiURL := defaultAPI
	if env := os.Getenv("IDEAFORGE_API"); env != "" {
		apiURL = strings.TrimSuffix(env, "/")
	}
	user := defaultUser
	if env := os.Getenv("IDEAFORGE_USER"); env != "" {
		user = env
	}

	c := &ctl{stdin: stdin, stdout: stdout}

	// Parse global flags and filter them out
	var filtered []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-json":
			c.jsonOutput = true
		case "-user":
			if i+1 < len(args) {
				user = args[i+1]
				i++
			}
		default:
			filtered = append(filtered, args[i])
		}
	}

	c.client = client.New(apiURL, client.WithUser(user))

	if len(filtered) < 1 {
		printUsage(stderr)
		return 1
	}

	cmd, rest := filtered[0], filtered[1:]
	ctx := context.Background()

	var err error
	switch cmd {
	case "health":
		err = c.cmdHealth(ctx)
	case "presets":
		err = c.cmdPresets(ctx)
	case "sessions":
		err = c.cmdSessions(ctx)
	case "session":
		err = c.cmdSession(ctx, rest)
	case "schema":
		err = c.cmdSchema(ctx, rest)
	case "ideas":
		err = c.cmdIdeas(ctx, rest)
	case "rate":
		err = c.cmdRate(ctx, rest)
	case "rankings":
		err = c.cmdRankings(ctx, rest)
	case "refine":
		err = c.cmdRefine(ctx, rest)
	case "canvas":
		err = c.cmdCanvas(ctx, rest)
	case "chat":
		err = c.cmdChat(ctx, rest)
	case "events":
		err = c.cmdEvents(ctx, rest)
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "ideaforge-ctl %s\n", version)
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		printUsage(stderr)
		return 1
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `ideaforge-ctl - Drive a running Ideaforge instance

Usage:
  ideaforge-ctl [-json] [-user <id>] <command> [arguments]

Global Flags:
  -json          Output in JSON format
  -user <id>     Act as this user (default: $IDEAFORGE_USER or "local")

Environment:
  IDEAFORGE_API  Base URL of the Ideaforge API (default: http://localhost:8420)
  IDEAFORGE_USER User id sent with each request

Commands:
  health                         Show server status
  presets                        List context presets
  sessions                       List your sessions

  session new [options]          Start a session
    -context <text>              What the ideas are about (required)
    -purpose <text>              What the ideas are for
    -preferences <text>          What good ideas look like
    -preset <id>                 Fill purpose and preferences from a preset
  session show <id>              Show the workflow state of a session
  session history <id>           Show stored schema versions and ideas

  schema confirm <id> [file]     Confirm the schema; an edited schema is
                                 read from file ("-" for stdin)
  ideas <id>                     Generate and evaluate ideas
  rate <id> <index> <value>      Rank one idea (1-10)
  rankings <id> <i=v>...         Submit rankings for the remaining ideas
  refine <id>                    Refine the schema and start a new iteration

  canvas <id>                    Show the panels of a session
  canvas move <id> <panel> <dx> <dy>  Drag a panel
  canvas scale <id> <scale>      Set the zoom

  chat <message>                 Ask the assistant
  chat -history                  Show your past exchanges

  events [-n N] [-type T] [-session ID]  Show recent events (default: 50)

  version                        Show version
  help                           Show this help`)
}

// printJSON outputs any value as formatted JSON
func (c *ctl) printJSON(v interface{}) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(c.stdout, string(out))
}

func (c *ctl) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.stdout, format, args...)
}

func (c *ctl) cmdHealth(ctx context.Context) error {
	h, err := c.client.Health(ctx)
	if err != nil {
		return err
	}
	if c.jsonOutput {
		c.printJSON(h)
		return nil
	}
	c.printf("%s (version %s)\n", h.Status, h.Version)
	return nil
}

func (c *ctl) cmdPresets(ctx context.Context) error {
	presets, err := c.client.Sessions.Presets(ctx)
	if err != nil {
		return err
	}
	if c.jsonOutput {
		c.printJSON(presets)
		return nil
	}

	c.printf("%-20s %-30s %s\n", "ID", "TITLE", "PURPOSE")
	c.printf("%s\n", strings.Repeat("-", 80))
	for _, p := range presets {
		c.printf("%-20s %-30s %s\n", p.ID, p.Title, p.Purpose)
	}
	return nil
}

func (c *ctl) cmdSessions(ctx context.Context) error {
	sessions, err := c.client.Sessions.List(ctx)
	if err != nil {
		return err
	}
	if c.jsonOutput {
		c.printJSON(sessions)
		return nil
	}

	c.printf("%-38s %-20s %s\n", "ID", "CREATED", "CONTEXT")
	c.printf("%s\n", strings.Repeat("-", 100))
	for _, s := range sessions {
		c.printf("%-38s %-20s %s\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(s.Context, 40))
	}
	return nil
}

func (c *ctl) cmdSession(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideaforge-ctl session <new|show|history> [args]")
	}

	switch args[0] {
	case "new":
		return c.cmdSessionNew(ctx, args[1:])
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: ideaforge-ctl session show <id>")
		}
		view, err := c.client.Sessions.Get(ctx, args[1])
		if err != nil {
			return err
		}
		return c.printView(view)
	case "history":
		if len(args) < 2 {
			return fmt.Errorf("usage: ideaforge-ctl session history <id>")
		}
		return c.cmdSessionHistory(ctx, args[1])
	default:
		return fmt.Errorf("unknown session subcommand: %s", args[0])
	}
}

func (c *ctl) cmdSessionNew(ctx context.Context, args []string) error {
	var in client.ContextInput
	var preset string

	for i := 0; i < len(args); i++ {
		if i+1 >= len(args) {
			return fmt.Errorf("missing value for %s", args[i])
		}
		switch args[i] {
		case "-context":
			in.Context = args[i+1]
		case "-purpose":
			in.Purpose = args[i+1]
		case "-preferences":
			in.Preferences = args[i+1]
		case "-preset":
			preset = args[i+1]
		default:
			return fmt.Errorf("unknown option: %s", args[i])
		}
		i++
	}

	var view *client.View
	var err error
	if preset != "" {
		view, err = c.client.Sessions.CreateFromPreset(ctx, preset, in)
	} else {
		view, err = c.client.Sessions.Create(ctx, in)
	}
	if err != nil {
		return err
	}
	return c.printView(view)
}

func (c *ctl) cmdSessionHistory(ctx context.Context, id string) error {
	hist, err := c.client.Sessions.History(ctx, id)
	if err != nil {
		return err
	}
	if c.jsonOutput {
		c.printJSON(hist)
		return nil
	}

	c.printf("Schema versions:\n")
	for _, v := range hist.SchemaVersions {
		c.printf("  v%-3d %s\n", v.Version, v.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	c.printf("\nIdeas:\n")
	c.printf("  %-5s %-5s %s\n", "SCORE", "RANK", "IDEA")
	for _, idea := range hist.Ideas {
		rank := "-"
		if idea.UserRanking != nil {
			rank = strconv.Itoa(*idea.UserRanking)
		}
		c.printf("  %-5s %-5s %s\n", idea.EvaluationScore, rank, idea.Idea)
	}
	return nil
}

func (c *ctl) cmdSchema(ctx context.Context, args []string) error {
	if len(args) < 2 || args[0] != "confirm" {
		return fmt.Errorf("usage: ideaforge-ctl schema confirm <id> [file]")
	}
	id := args[1]

	var schema client.Schema
	if len(args) > 2 {
		var data []byte
		var err error
		if args[2] == "-" {
			data, err = io.ReadAll(c.stdin)
		} else {
			data, err = os.ReadFile(args[2])
		}
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		if err := json.Unmarshal(data, &schema); err != nil {
			return fmt.Errorf("failed to parse schema: %w", err)
		}
	} else {
		view, err := c.client.Sessions.Get(ctx, id)
		if err != nil {
			return err
		}
		schema = view.Schema
	}

	view, err := c.client.Sessions.ConfirmSchema(ctx, id, schema)
	if err != nil {
		return err
	}
	return c.printView(view)
}

func (c *ctl) cmdIdeas(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideaforge-ctl ideas <id>")
	}
	view, err := c.client.Sessions.GenerateIdeas(ctx, args[0])
	if err != nil {
		return err
	}
	return c.printView(view)
}

func (c *ctl) cmdRate(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: ideaforge-ctl rate <id> <index> <value>")
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid index: %s", args[1])
	}
	value, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid value: %s", args[2])
	}
	view, err := c.client.Sessions.Rate(ctx, args[0], index, value)
	if err != nil {
		return err
	}
	return c.printView(view)
}

func (c *ctl) cmdRankings(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideaforge-ctl rankings <id> <index=value>...")
	}
	rankings, err := parseRankings(args[1:])
	if err != nil {
		return err
	}
	view, err := c.client.Sessions.SubmitRankings(ctx, args[0], rankings)
	if err != nil {
		return err
	}
	return c.printView(view)
}

// parseRankings parses index=value pairs.
func parseRankings(pairs []string) (map[int]int, error) {
	rankings := make(map[int]int, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid ranking %q (want index=value)", pair)
		}
		index, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("invalid index in %q", pair)
		}
		value, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value in %q", pair)
		}
		rankings[index] = value
	}
	return rankings, nil
}

func (c *ctl) cmdRefine(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideaforge-ctl refine <id>")
	}
	view, err := c.client.Sessions.Refine(ctx, args[0])
	if err != nil {
		return err
	}
	return c.printView(view)
}

func (c *ctl) cmdCanvas(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideaforge-ctl canvas <id> | canvas move <id> <panel> <dx> <dy> | canvas scale <id> <scale>")
	}

	switch args[0] {
	case "move":
		if len(args) < 5 {
			return fmt.Errorf("usage: ideaforge-ctl canvas move <id> <panel> <dx> <dy>")
		}
		dx, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("invalid dx: %s", args[3])
		}
		dy, err := strconv.ParseFloat(args[4], 64)
		if err != nil {
			return fmt.Errorf("invalid dy: %s", args[4])
		}
		panel, err := c.client.Canvas.Move(ctx, args[1], args[2], dx, dy)
		if err != nil {
			return err
		}
		if c.jsonOutput {
			c.printJSON(panel)
			return nil
		}
		c.printf("%s moved to (%.0f, %.0f)\n", panel.ID, panel.Position.X, panel.Position.Y)
		return nil
	case "scale":
		if len(args) < 3 {
			return fmt.Errorf("usage: ideaforge-ctl canvas scale <id> <scale>")
		}
		scale, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid scale: %s", args[2])
		}
		got, err := c.client.Canvas.SetScale(ctx, args[1], scale)
		if err != nil {
			return err
		}
		if c.jsonOutput {
			c.printJSON(map[string]float64{"scale": got})
			return nil
		}
		c.printf("scale %.2f\n", got)
		return nil
	}

	cv, err := c.client.Canvas.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if c.jsonOutput {
		c.printJSON(cv)
		return nil
	}

	c.printf("%-38s %-18s %-5s %-8s %s\n", "PANEL", "TYPE", "ITER", "STATE", "POSITION")
	c.printf("%s\n", strings.Repeat("-", 90))
	for _, p := range cv.Canvas.Panels {
		state := ""
		switch {
		case p.Active:
			state = "active"
		case p.Completed:
			state = "done"
		}
		c.printf("%-38s %-18s %-5d %-8s (%.0f, %.0f)\n", p.ID, p.Type, p.Iteration, state, p.Position.X, p.Position.Y)
	}
	c.printf("\n%d connections, scale %.2f\n", len(cv.Canvas.Connections), cv.Canvas.Scale)
	return nil
}

func (c *ctl) cmdChat(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideaforge-ctl chat <message> | chat -history")
	}

	if args[0] == "-history" {
		records, err := c.client.Chat.History(ctx)
		if err != nil {
			return err
		}
		if c.jsonOutput {
			c.printJSON(records)
			return nil
		}
		for _, r := range records {
			c.printf("[%s] %s\n\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Response)
		}
		return nil
	}

	reply, err := c.client.Chat.Send(ctx, []client.Message{{Role: "user", Content: strings.Join(args, " ")}})
	if err != nil {
		return err
	}
	if c.jsonOutput {
		c.printJSON(reply)
		return nil
	}
	c.printf("%s\n", reply.Message.Content)
	return nil
}

func (c *ctl) cmdEvents(ctx context.Context, args []string) error {
	opts := &client.ListOptions{Limit: 50}

	for i := 0; i < len(args); i++ {
		if i+1 >= len(args) {
			return fmt.Errorf("missing value for %s", args[i])
		}
		switch args[i] {
		case "-n":
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid count: %s", args[i+1])
			}
			opts.Limit = n
		case "-type":
			opts.Types = append(opts.Types, args[i+1])
		case "-session":
			opts.Session = args[i+1]
		case "-since":
			d, err := time.ParseDuration(args[i+1])
			if err != nil {
				return fmt.Errorf("invalid duration: %s", args[i+1])
			}
			opts.Since = time.Now().Add(-d)
		default:
			return fmt.Errorf("unknown option: %s", args[i])
		}
		i++
	}

	events, err := c.client.Events.List(ctx, opts)
	if err != nil {
		return err
	}
	if c.jsonOutput {
		c.printJSON(events)
		return nil
	}

	c.printf("%-20s %-22s %-12s %s\n", "TIME", "TYPE", "SESSION", "DETAILS")
	c.printf("%s\n", strings.Repeat("-", 100))
	for _, evt := range events {
		c.printf("%-20s %-22s %-12s %s\n",
			evt.Timestamp.Local().Format("2006-01-02 15:04:05"),
			evt.Type,
			truncate(evt.Session, 12),
			formatPayload(evt.Payload),
		)
	}
	return nil
}

// formatPayload renders a payload as sorted key=value pairs.
func formatPayload(payload map[string]interface{}) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, payload[k])
	}
	return strings.Join(parts, " ")
}

// printView prints the workflow state of a session.
func (c *ctl) printView(v *client.View) error {
	if c.jsonOutput {
		c.printJSON(v)
		return nil
	}

	c.printf("Session:   %s\n", v.Session.ID)
	c.printf("Step:      %s (iteration %d)\n", v.Step, v.Iteration)
	c.printf("Schema:    v%d\n", v.SchemaVersion)
	c.printf("  Purpose:     %s\n", v.Schema.Purpose)
	c.printf("  Context:     %s\n", v.Schema.Context)
	printList(c.stdout, "Criteria", v.Schema.Criteria)
	printList(c.stdout, "Constraints", v.Schema.Constraints)
	printList(c.stdout, "Successful", v.Schema.SuccessfulIdeas)

	if len(v.Ideas) > 0 {
		c.printf("\n  %-4s %-6s %-5s %s\n", "#", "SCORE", "RANK", "IDEA")
		for i, idea := range v.Ideas {
			rank := "-"
			if v.Ranking != nil {
				if r, ok := v.Ranking.Rankings[client.RankingKey(i)]; ok {
					rank = strconv.Itoa(r)
				}
			}
			c.printf("  %-4d %-6s %-5s %s\n", i, idea.Evaluation, rank, idea.Idea)
		}
	}
	if v.Ranking != nil {
		c.printf("\nRanked %d of %d (average %.1f)\n", v.Ranking.Completed, v.Ranking.Total, v.Ranking.Insights.Average)
	}
	return nil
}

func printList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %-12s %s\n", label+":", strings.Join(items, "; "))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
