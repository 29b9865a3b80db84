// Package main is the entry point for the formctl binary.  It submits
// create-user input to a running server (or validates it locally) and shows
// both the wire envelope and the form state the error applicator produces.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/action"
	"github.com/yanizio/formaction/internal/client"
	"github.com/yanizio/formaction/internal/form"
	"github.com/yanizio/formaction/internal/formstate"
	"github.com/yanizio/formaction/internal/schema"
	"github.com/yanizio/formaction/internal/user"
)

const (
	defaultURL     = "http://localhost:8080"
	defaultTimeout = 15 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for formctl
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "formctl",
		Short: "Submit and inspect formaction forms",
		Long: `formctl drives the create-user form from the command line.

Example:
  formctl submit --url http://localhost:8080 --name Ann --email ann@example.com --age 30
  formctl validate --name "" --email nope`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().Bool("verbose", false, "Log HTTP retries to stderr")

	rootCmd.AddCommand(newSubmitCmd(), newValidateCmd(), newFormsCmd())
	return rootCmd
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "User name")
	cmd.Flags().String("email", "", "User email")
	cmd.Flags().Int("age", 0, "User age")
}

// inputFromFlags builds the raw submission.  Unset flags are omitted so the
// schema sees a missing key, not an empty one.
func inputFromFlags(cmd *cobra.Command) (map[string]any, error) {
	raw := map[string]any{}
	for _, name := range []string{"name", "email"} {
		if cmd.Flags().Changed(name) {
			v, err := cmd.Flags().GetString(name)
			if err != nil {
				return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
			}
			raw[name] = v
		}
	}
	if cmd.Flags().Changed("age") {
		v, err := cmd.Flags().GetInt("age")
		if err != nil {
			return nil, fmt.Errorf("failed to get age flag: %w", err)
		}
		raw["age"] = v
	}
	return raw, nil
}

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "POST create-user input to a server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := inputFromFlags(cmd)
			if err != nil {
				return err
			}
			url, _ := cmd.Flags().GetString("url")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			verbose, _ := cmd.Flags().GetBool("verbose")

			log := zap.NewNop()
			if verbose {
				log, _ = zap.NewDevelopment()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			env, err := client.New(url, log).CreateUser(ctx, raw)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), env)
		},
	}
	addInputFlags(cmd)
	cmd.Flags().StringP("url", "u", defaultURL, "Server base URL")
	cmd.Flags().Duration("timeout", defaultTimeout, "Overall request timeout")
	return cmd
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate create-user input locally without saving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := inputFromFlags(cmd)
			if err != nil {
				return err
			}
			res := user.CreateSchema.Validate(raw)
			env := action.Envelope[user.CreateUserInput]{Success: res.OK(), Timestamp: time.Now().UnixMilli()}
			if res.OK() {
				env.Data = res.Value()
			} else {
				errs := res.Errors()
				env.Error = &errs
			}
			return report(cmd.OutOrStdout(), env)
		},
	}
	addInputFlags(cmd)
	return cmd
}

func newFormsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forms [dir]",
		Short: "List form definitions under dir/components and check them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			reg := form.NewRegistry()
			if err := reg.Load(dir); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d form(s)\n", reg.Len())

			fd, err := reg.Lookup(user.CreateFormID)
			if err != nil {
				return err
			}
			if err := fd.Check(user.CreateSchema.Fields()); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s: %s\n", fd.ID, strings.Join(fd.Names(), ", "))
			return nil
		},
	}
}

// report prints the envelope, then the state a form would end up in.
func report[O any](w io.Writer, env action.Envelope[O]) error {
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", b)

	if env.Success || env.Error == nil {
		return nil
	}
	fmt.Fprintln(w, describe(*env.Error, user.CreateSchema.Fields()))
	return nil
}

// describe applies errs to a fresh state for fields and summarises it.
func describe(errs schema.FlattenedErrors, fields []string) string {
	st := formstate.New(fields...)
	formstate.Apply(st, errs)

	var b strings.Builder
	if root, ok := st.RootError(); ok {
		fmt.Fprintf(&b, "form:    %s\n", root.Message)
	}
	all := st.Errors()
	names := make([]string, 0, len(all))
	for k := range all {
		if k != formstate.Root {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, "%-8s %s\n", k+":", all[k].Message)
	}
	if f := st.Focused(); f != "" {
		fmt.Fprintf(&b, "focus:   %s", f)
	}
	return strings.TrimRight(b.String(), "\n")
}
