// Package cli はtrackitコマンドのサブコマンドを実装します。
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"trackit/internal/board"
	"trackit/internal/client"
	"trackit/internal/models"
)

// Env はサブコマンドの実行環境です。
type Env struct {
	Client   *client.Client
	Sessions *client.SessionStore
	// Token はTRACKIT_TOKENの値です。空でなければ保存済みのトークンより優先します。
	Token   string
	Timeout time.Duration
	Out     io.Writer
	Err     io.Writer
	// RunBoard はボード画面を起動します。
	RunBoard func(b *board.Board, timeout time.Duration) error
}

type runner struct {
	env Env
}

// Run はサブコマンドを実行し、終了コードを返します。
func Run(ctx context.Context, args []string, env Env) int {
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Err == nil {
		env.Err = os.Stderr
	}
	r := &runner{env: env}

	if len(args) == 0 {
		PrintHelp(env.Err)
		return 2
	}
	cmd, a := args[0], args[1:]

	var err error
	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(env.Out)
		return 0
	case "register":
		err = r.register(ctx, a)
	case "login":
		err = r.login(ctx, a)
	case "logout":
		err = r.logout()
	case "whoami":
		err = r.whoami(ctx)
	case "ls":
		err = r.list(ctx, a)
	case "add":
		err = r.add(ctx, a)
	case "edit":
		err = r.edit(ctx, a)
	case "show":
		err = r.show(ctx, a)
	case "mv":
		err = r.move(ctx, a)
	case "rm":
		err = r.remove(ctx, a)
	case "board":
		err = r.openBoard(ctx)
	default:
		r.fail("unknown subcommand: " + cmd)
		fmt.Fprintln(env.Err)
		PrintHelp(env.Err)
		return 2
	}

	var usage usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		r.fail(usage.Error())
		return 2
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, client.ErrNoSession), errors.Is(err, client.ErrNotLoggedIn), client.IsStatus(err, http.StatusUnauthorized):
		r.fail(fmt.Sprintf("%v (run `trackit login`)", err))
		return 1
	default:
		r.fail(err.Error())
		return 1
	}
}

// PrintHelp は使い方を出力します。
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `trackit - kanban task tracker client

Usage:
  trackit [-config file] <subcommand> [args]

Subcommands:
  register -name N -email E -password P   Create an account and log in
  login -email E -password P              Log in and save the session
  logout                                  Forget the saved session
  whoami                                  Show the logged-in user
  ls [-status S]                          List tasks grouped by column
  add [-desc D] [-assign A] [-status S] <title...>
                                          Add a task (status defaults to ToDo)
  edit [-title T] [-desc D] [-assign A] <id>
                                          Change only the given fields
  show <id>                               Show one task
  mv <id> <todo|inprogress|done>          Move a task to another column
  rm <id>                                 Delete a task
  board                                   Open the interactive board

Environment:
  TRACKIT_URL, TRACKIT_TIMEOUT, TRACKIT_SESSION, TRACKIT_TOKEN
`)
}

type usageError string

func (e usageError) Error() string { return "usage: trackit " + string(e) }

func (r *runner) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.env.Err)
	return fs
}

func (r *runner) session() (client.Session, error) {
	sess, err := r.env.Sessions.Resolve(r.env.Token)
	if err != nil {
		return client.Session{}, err
	}
	if server := r.env.Client.ServerFor(sess); server != r.env.Client.BaseURL() {
		muted(r.env.Err, fmt.Sprintf("using %s from the saved session; run `trackit login` to switch to %s", server, r.env.Client.BaseURL()))
	}
	return sess, nil
}

func (r *runner) register(ctx context.Context, args []string) error {
	fs := r.flags("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (at least 6 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" || *password == "" {
		return usageError("register -name N -email E -password P")
	}

	sess, err := r.env.Client.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	if err := r.env.Sessions.Save(sess); err != nil {
		return err
	}
	r.ok(fmt.Sprintf("registered and logged in as %s <%s>", sess.User.Name, sess.User.Email))
	return nil
}

func (r *runner) login(ctx context.Context, args []string) error {
	fs := r.flags("login")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return usageError("login -email E -password P")
	}

	sess, err := r.env.Client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := r.env.Sessions.Save(sess); err != nil {
		return err
	}
	r.ok("logged in as " + sess.User.Email)
	return nil
}

func (r *runner) logout() error {
	if r.env.Token != "" {
		r.ok("token is provided by TRACKIT_TOKEN (nothing to delete)")
		return nil
	}
	if err := r.env.Sessions.Clear(); err != nil {
		return err
	}
	r.ok("logged out")
	return nil
}

func (r *runner) whoami(ctx context.Context) error {
	sess, err := r.session()
	if err != nil {
		return err
	}
	me, err := r.env.Client.Me(ctx, sess)
	if err != nil {
		return err
	}
	r.println(fmt.Sprintf("%s <%s>", me.Name, me.Email))
	muted(r.env.Out, fmt.Sprintf("id %s on %s", me.ID, r.env.Client.ServerFor(sess)))
	return nil
}

func (r *runner) list(ctx context.Context, args []string) error {
	fs := r.flags("ls")
	status := fs.String("status", "", "only show one column")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess, err := r.session()
	if err != nil {
		return err
	}
	tasks, err := r.env.Client.ListTasks(ctx, sess)
	if err != nil {
		return err
	}

	cols := board.Partition(tasks)
	var ordered []*models.Task
	for _, s := range models.Statuses {
		ordered = append(ordered, cols.Column(s)...)
	}
	ordered = append(ordered, cols.Orphans...)

	if *status != "" {
		want, _ := models.ParseStatus(*status)
		filtered := ordered[:0]
		for _, t := range ordered {
			if t.Status == want {
				filtered = append(filtered, t)
			}
		}
		ordered = filtered
	}

	if len(ordered) == 0 {
		muted(r.env.Out, "no tasks")
		return nil
	}
	r.println(renderTable(ordered))
	return nil
}

func renderTable(tasks []*models.Task) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{t.ID, t.Status.Label(), t.Title, t.AssignedTo})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "TITLE", "ASSIGNED").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func (r *runner) add(ctx context.Context, args []string) error {
	fs := r.flags("add")
	desc := fs.String("desc", "", "description")
	assign := fs.String("assign", "", "assignee")
	status := fs.String("status", "", "initial column")
	if err := fs.Parse(args); err != nil {
		return err
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		return usageError("add [-desc D] [-assign A] [-status S] <title...>")
	}

	req := models.TaskCreateRequest{Title: title, Description: *desc, AssignedTo: *assign}
	if *status != "" {
		req.Status, _ = models.ParseStatus(*status)
	}

	sess, err := r.session()
	if err != nil {
		return err
	}
	task, err := r.env.Client.CreateTask(ctx, sess, req)
	if err != nil {
		return err
	}
	r.ok(fmt.Sprintf("added %q to %s (%s)", task.Title, task.Status.Label(), task.ID))
	return nil
}

func (r *runner) edit(ctx context.Context, args []string) error {
	fs := r.flags("edit")
	var patch models.TaskPatch
	fs.Func("title", "new title", func(v string) error { patch.Title = &v; return nil })
	fs.Func("desc", "new description", func(v string) error { patch.Description = &v; return nil })
	fs.Func("assign", "new assignee", func(v string) error { patch.AssignedTo = &v; return nil })
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("edit [-title T] [-desc D] [-assign A] <id>")
	}

	sess, err := r.session()
	if err != nil {
		return err
	}
	task, err := r.env.Client.UpdateTask(ctx, sess, fs.Arg(0), patch)
	if err != nil {
		return err
	}
	r.ok(fmt.Sprintf("updated %q", task.Title))
	return nil
}

func (r *runner) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("show <id>")
	}
	sess, err := r.session()
	if err != nil {
		return err
	}
	task, err := r.env.Client.GetTask(ctx, sess, args[0])
	if err != nil {
		return err
	}
	r.println(renderTable([]*models.Task{task}))
	if task.Description != "" {
		r.println(task.Description)
	}
	muted(r.env.Out, fmt.Sprintf("created %s, updated %s", task.CreatedAt.Format(time.DateTime), task.UpdatedAt.Format(time.DateTime)))
	return nil
}

// move はボードと同じドラッグ操作で移動します。同じ列なら何も送りません。
func (r *runner) move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("mv <id> <todo|inprogress|done>")
	}
	id := args[0]
	status, known := models.ParseStatus(args[1])
	if !known {
		muted(r.env.Err, fmt.Sprintf("%q is not a board column; sending it as is", args[1]))
	}

	sess, err := r.session()
	if err != nil {
		return err
	}
	b := board.New(r.env.Client.WithSession(sess))
	if err := b.Load(ctx); err != nil {
		return err
	}
	drag := board.NewDragController(b)
	if err := drag.Pick(id); err != nil {
		return fmt.Errorf("task %s: %w", id, err)
	}
	moved, err := drag.Drop(ctx, status)
	if err != nil {
		return err
	}

	task, _ := b.Task(id)
	if !moved {
		muted(r.env.Out, fmt.Sprintf("%q is already in %s", task.Title, task.Status.Label()))
		return nil
	}
	r.ok(fmt.Sprintf("moved %q to %s", task.Title, task.Status.Label()))
	return nil
}

func (r *runner) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("rm <id>")
	}
	sess, err := r.session()
	if err != nil {
		return err
	}
	if err := r.env.Client.DeleteTask(ctx, sess, args[0]); err != nil {
		return err
	}
	r.ok("deleted " + args[0])
	return nil
}

func (r *runner) openBoard(ctx context.Context) error {
	sess, err := r.session()
	if err != nil {
		return err
	}
	// トークンが有効かを先に確認する
	if _, err := r.env.Client.Me(ctx, sess); err != nil {
		return err
	}
	if r.env.RunBoard == nil {
		return errors.New("board UI is not available")
	}
	return r.env.RunBoard(board.New(r.env.Client.WithSession(sess)), r.env.Timeout)
}
