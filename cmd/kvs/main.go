// Command kvs is the client CLI for a running kvs server: set, get, and rm
// subcommands, each opening one connection, sending one request, and
// printing the result.
package main

import (
	"fmt"
	"os"

	"github.com/iamNilotpal/kvs/internal/client"
	kvserrors "github.com/iamNilotpal/kvs/pkg/errors"
	"github.com/iamNilotpal/kvs/pkg/options"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:           "kvs",
		Short:         "kvs is a client for the kvs key/value store server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", options.DefaultAddr, "server address to connect to")

	root.AddCommand(newSetCmd(&addr))
	root.AddCommand(newGetCmd(&addr))
	root.AddCommand(newRemoveCmd(&addr))

	return root
}

func newSetCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set the value of a string key to a string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := client.New(*addr)
			if err := cl.Set(args[0], args[1]); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			return nil
		},
	}
}

func newGetCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Get the string value of a given string key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := client.New(*addr)
			value, found, err := cl.Get(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			if !found {
				fmt.Println("Key not found")
				return nil
			}
			fmt.Println(value)
			return nil
		},
	}
}

func newRemoveCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm KEY",
		Short: "Remove a given string key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := client.New(*addr)
			if err := cl.Remove(args[0]); err != nil {
				if ee, ok := kvserrors.AsEngineError(err); ok && ee.Error() == "Key not found" {
					fmt.Fprintln(os.Stderr, "Key not found")
					return err
				}
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			return nil
		},
	}
}
