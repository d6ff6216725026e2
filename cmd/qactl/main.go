package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"QA_Community/internal/client"
	"QA_Community/internal/pkg"

	"github.com/spf13/cobra"
)

type options struct {
	server string
	token  string
	user   string
	out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{out: out}
	root := &cobra.Command{
		Use:           "qactl",
		Short:         "Command line client for the Q&A community service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("QACTL_SERVER", "http://127.0.0.1:8080"), "API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("QACTL_TOKEN"), "bearer access token")
	root.PersistentFlags().StringVarP(&opts.user, "user", "u", os.Getenv("QACTL_USER"), "acting username")

	root.AddCommand(
		newCommunityCmd(opts),
		newCollectionCmd(opts),
		newQuestionCmd(opts),
		newLoginCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func (o *options) client() (*client.Client, error) {
	return client.New(client.Config{URL: o.server, Token: o.token})
}

func (o *options) requireUser() error {
	if o.user == "" {
		return fmt.Errorf("--user is required")
	}
	return nil
}

func (o *options) print(v any) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (uint64, error) {
	id, ok := pkg.ParseID(s)
	if !ok {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLoginCmd(o *options) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login USERNAME",
		Short: "Log in and print the token pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			pair, err := c.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			return o.print(pair)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newQuestionCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{Use: "question", Short: "Ask, read and upvote questions"}

	var title, text, community string
	ask := &cobra.Command{
		Use:   "ask",
		Short: "Ask a question",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			q, err := c.AskQuestion(cmd.Context(), client.AskQuestionRequest{
				Title: title, Text: text, AskedBy: o.user, CommunityID: community,
			})
			if err != nil {
				return err
			}
			return o.print(q)
		},
	}
	ask.Flags().StringVar(&title, "title", "", "question title")
	ask.Flags().StringVar(&text, "text", "", "question body")
	ask.Flags().StringVar(&community, "community", "", "community id")

	get := &cobra.Command{
		Use:  "get ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			q, err := c.GetQuestion(cmd.Context(), id)
			if err != nil {
				return err
			}
			return o.print(q)
		},
	}

	upvote := &cobra.Command{
		Use:   "upvote ID",
		Short: "Toggle your upvote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			res, err := c.Upvote(cmd.Context(), id, o.user)
			if err != nil {
				return err
			}
			return o.print(res)
		},
	}

	cmd.AddCommand(ask, get, upvote)
	return cmd
}

func atoiOr(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return fallback
}
