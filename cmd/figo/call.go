package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AmmannChristian/go-figo/session"
)

func newCallCmd(a *app) *cobra.Command {
	var method, data, token string

	cmd := &cobra.Command{
		Use:   "call <path>",
		Short: "Perform an authenticated REST call and print the JSON response",
		Long: "Performs a call such as `figo call /rest/accounts`. A resource that does " +
			"not exist prints null.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(token)
			if err != nil {
				return err
			}

			var body any
			if data != "" {
				if !json.Valid([]byte(data)) {
					return errors.New("--data is not valid JSON")
				}
				body = json.RawMessage(data)
			}

			result, err := s.Call(cmd.Context(), args[0], body, strings.ToUpper(method))
			if err != nil {
				return err
			}
			if !result.Found() {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "null")
				return err
			}
			return printJSON(cmd.OutOrStdout(), result.Raw())
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringVar(&token, "token", "", "Access token (default FIGO_ACCESS_TOKEN)")
	return cmd
}

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect server-side tasks",
	}
	cmd.AddCommand(newTaskWaitCmd(a))
	return cmd
}

func newTaskWaitCmd(a *app) *cobra.Command {
	var (
		token    string
		interval time.Duration
		maxWait  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait <task-token>",
		Short: "Poll a task until it ends and print its final state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(token)
			if err != nil {
				return err
			}

			opts := []session.WaitOption{
				session.WithPollInterval(interval, 5*interval),
				session.WithProgress(func(st session.TaskState) {
					if st.Message != "" {
						fmt.Fprintln(cmd.ErrOrStderr(), st.Message)
					}
				}),
			}
			if maxWait > 0 {
				opts = append(opts, session.WithWaitTimeout(maxWait))
			}

			state, err := s.WaitForTask(cmd.Context(), session.TaskToken(args[0]), opts...)
			var taskErr *session.TaskError
			if err != nil && !errors.As(err, &taskErr) {
				return err
			}
			if perr := printJSON(cmd.OutOrStdout(), state); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Access token (default FIGO_ACCESS_TOKEN)")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Initial poll interval")
	cmd.Flags().DurationVar(&maxWait, "max-wait", 0, "Give up after this long (0 waits indefinitely)")
	return cmd
}
