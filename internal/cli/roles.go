package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeforge-ai/codeforge/internal/agent"
)

// NewRolesCmd lists the built-in specialist roles and their toolsets.
func NewRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List built-in agent roles",
		Run: func(cmd *cobra.Command, args []string) {
			roster := agent.NewRoster()
			out := cmd.OutOrStdout()
			for _, key := range roster.Keys() {
				role, _ := roster.Lookup(key)
				fmt.Fprintf(out, "%s\n  tools: %s\n", key, strings.Join(role.Toolset, ", "))
			}
		},
	}
}
