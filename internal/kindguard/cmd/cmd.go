package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yyup/kindguard/internal/kindguard/cmd/start"
)

func NewKindguardCmd() *cobra.Command {
	cmds := &cobra.Command{
		Use:     "kindguard",
		Short:   "kindergarten platform access-control service",
		Version: "0.0.1",
	}
	cmds.AddCommand(start.NewStartCmd())
	return cmds
}
