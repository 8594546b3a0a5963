package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/penwyp/go-mine-replay/internal/provider"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage provider API keys in the OS keyring",
}

var authSetCmd = &cobra.Command{
	Use:   "set <provider> [key]",
	Short: "Store an API key (read from stdin when not given)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAuthSet,
}

var authClearCmd = &cobra.Command{
	Use:   "clear <provider>",
	Short: "Remove a stored API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthClear,
}

var authStatusCmd = &cobra.Command{
	Use:   "status <provider>",
	Short: "Show where a provider's API key comes from",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd, authClearCmd, authStatusCmd)
}

func checkProviderID(id string) error {
	ids := provider.CreateRegistry(provider.Config{}).IDs()
	if !lo.Contains(ids, id) {
		return fmt.Errorf("%w: %s (known: %s)", provider.ErrUnknownProvider, id, strings.Join(ids, ", "))
	}
	return nil
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := checkProviderID(id); err != nil {
		return err
	}

	var key string
	if len(args) == 2 {
		key = args[1]
	} else {
		var err error
		if key, err = readSecret(cmd); err != nil {
			return err
		}
	}

	if err := provider.NewKeyringStore(provider.KeyringService).SetAPIKey(id, strings.TrimSpace(key)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored API key for %s\n", id)
	return nil
}

func runAuthClear(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := checkProviderID(id); err != nil {
		return err
	}
	if err := provider.NewKeyringStore(provider.KeyringService).DeleteAPIKey(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed API key for %s\n", id)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := checkProviderID(id); err != nil {
		return err
	}

	sources := []struct {
		name string
		keys provider.KeySource
	}{
		{"environment (" + provider.EnvVar(id) + ")", provider.EnvKeys{}},
		{"keyring", provider.NewKeyringStore(provider.KeyringService)},
	}
	for _, src := range sources {
		_, err := src.keys.APIKey(id)
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: API key from %s\n", id, src.name)
			return nil
		}
		if !errors.Is(err, provider.ErrAPIKeyNotFound) {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: no API key configured\n", id)
	return nil
}

// readSecret reads a key without echo from a terminal, or one line from
// piped stdin
func readSecret(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no API key given")
	}
	return line, nil
}
