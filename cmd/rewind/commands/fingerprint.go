package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newFingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint <call> [args...]",
		Short: "Compute and register the fingerprint of a call",
		Long: "Compute and register the fingerprint of a call.\n\n" +
			"Arguments are parsed as JSON literals when possible and as plain strings otherwise.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kwargs, _ := cmd.Flags().GetStringArray("kwarg")

			call, err := parseCall(args[0], args[1:], kwargs)
			if err != nil {
				return err
			}

			fp, err := c.app.Fingerprint(cmd.Context(), sessionOptions(cmd), call)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), fp)
			return nil
		},
	}

	cmd.Flags().StringArrayP("kwarg", "k", nil, "Keyword argument as key=value (repeatable)")

	return cmd
}

func parseCall(method string, args, kwargs []string) (domain.Call, error) {
	values := make([]any, 0, len(args))
	for _, arg := range args {
		values = append(values, parseValue(arg))
	}
	call := domain.NewCall(method, values...)

	for _, kv := range kwargs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return domain.Call{}, zerr.With(zerr.Wrap(domain.ErrInvalidKwarg, "failed to parse kwarg"), "kwarg", kv)
		}
		call = call.WithKwarg(key, parseValue(value))
	}
	return call, nil
}

func parseValue(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	return v
}
