package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Rrens/stackbot/internal/client"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const help = `commands:
  /list            show conversations
  /new <name>      create a conversation
  /use <n>         select conversation n from /list
  /rm <n>          delete conversation n
  /del <msgID>     delete a message of the selected conversation
  /history         show the selected conversation
  /clear           dismiss the last error
  /ask <text>      send text to the standalone log
  /log             show the standalone log, newest first
  /log rm <id>     delete one standalone log entry
  /log clear       delete the whole standalone log
  /quit            exit
anything else is sent to the selected conversation`

func main() {
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	defaultURL := os.Getenv("STACKBOT_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:3001"
	}
	baseURL := flag.String("url", defaultURL, "backend base URL")
	flag.Parse()

	backend := client.New(*baseURL)
	app := &repl{
		api:   backend,
		state: client.NewState(backend),
		out:   os.Stdout,
	}
	if err := app.run(context.Background(), os.Stdin); err != nil {
		log.Fatal().Err(err).Msg("Chat failed")
	}
}

type repl struct {
	api   *client.Client
	state *client.State
	out   io.Writer
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	if err := r.state.Mount(ctx); err != nil {
		r.printError()
	}
	fmt.Fprintln(r.out, help)
	r.printConversations()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if quit := r.handle(ctx, strings.TrimSpace(scanner.Text())); quit {
			return nil
		}
	}
}

func (r *repl) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch cmd {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, help)
		return false
	case "/list":
		r.printConversations()
		return false
	case "/new":
		err = r.state.AddConversation(ctx, arg)
		if err == nil {
			r.printConversations()
		}
	case "/use":
		var id uuid.UUID
		if id, err = r.conversationAt(arg); err == nil {
			if err = r.state.Select(ctx, id); err == nil {
				r.printMessages()
			}
		}
	case "/rm":
		var id uuid.UUID
		if id, err = r.conversationAt(arg); err == nil {
			err = r.state.DeleteConversation(ctx, id)
			r.printConversations()
		}
	case "/del":
		var id uuid.UUID
		if id, err = uuid.Parse(arg); err == nil {
			if err = r.state.DeleteMessage(ctx, id); err == nil {
				r.printMessages()
			}
		}
	case "/history":
		r.printMessages()
		return false
	case "/clear":
		r.state.ClearError()
		return false
	case "/ask":
		var reply string
		if reply, err = r.api.Chat(ctx, arg); err == nil {
			fmt.Fprintf(r.out, "bot: %s\n", reply)
		}
	case "/log":
		err = r.handleLog(ctx, arg)
	default:
		r.state.SetInput(line)
		if err = r.state.Send(ctx); err == nil {
			r.printLastReply()
		}
	}

	if err != nil {
		if r.state.Snapshot().LastError != nil {
			r.printError()
		} else {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
	return false
}

func (r *repl) handleLog(ctx context.Context, arg string) error {
	sub, rest, _ := strings.Cut(arg, " ")
	switch sub {
	case "":
		history, err := r.api.History(ctx)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Fprintln(r.out, "log is empty")
		}
		for _, m := range history {
			fmt.Fprintf(r.out, "[%s] you: %s\n", m.ID, m.User)
			fmt.Fprintf(r.out, "bot: %s\n", m.Bot)
		}
		return nil
	case "rm":
		id, err := uuid.Parse(strings.TrimSpace(rest))
		if err != nil {
			return err
		}
		return r.api.DeleteHistoryMessage(ctx, id)
	case "clear":
		if err := r.api.ClearHistory(ctx); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "log cleared")
		return nil
	default:
		return fmt.Errorf("unknown /log command %q", sub)
	}
}

func (r *repl) conversationAt(arg string) (uuid.UUID, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("expected a conversation number, got %q", arg)
	}
	convs := r.state.Snapshot().Conversations
	if n < 1 || n > len(convs) {
		return uuid.Nil, fmt.Errorf("no conversation %d", n)
	}
	return convs[n-1].ID, nil
}

func (r *repl) printConversations() {
	snap := r.state.Snapshot()
	if len(snap.Conversations) == 0 {
		fmt.Fprintln(r.out, "no conversations yet, type a message to start one")
		return
	}
	for i, c := range snap.Conversations {
		marker := " "
		if snap.HasSelection && c.ID == snap.Selected {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %d. %s\n", marker, i+1, c.Name)
	}
}

func (r *repl) printMessages() {
	snap := r.state.Snapshot()
	if !snap.HasSelection {
		fmt.Fprintln(r.out, "no conversation selected")
		return
	}
	for _, m := range snap.Messages {
		fmt.Fprintf(r.out, "[%s] you: %s\n", m.ID, m.User)
		fmt.Fprintf(r.out, "bot: %s\n", m.Bot)
	}
}

func (r *repl) printLastReply() {
	msgs := r.state.Snapshot().Messages
	if len(msgs) == 0 {
		return
	}
	fmt.Fprintf(r.out, "bot: %s\n", msgs[len(msgs)-1].Bot)
}

func (r *repl) printError() {
	if err := r.state.Snapshot().LastError; err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
}
