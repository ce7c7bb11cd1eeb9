package cli

import (
	"github.com/spf13/cobra"
)

func newTransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer and transaction log commands",
	}

	cmd.AddCommand(newTransferSendCmd())
	cmd.AddCommand(newTransferHistoryCmd())

	return cmd
}

func newTransferSendCmd() *cobra.Command {
	var to string
	var amount int64

	cmd := &cobra.Command{
		Use:   "send <code>",
		Short: "Send money to another player or the Bank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"to":     to,
				"amount": amount,
			}
			var result Transaction

			if err := client.Post("/api/v1/rooms/"+args[0]+"/transfers", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient display name, or Bank (required)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Amount to transfer (required)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTransferHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <code>",
		Short: "Show a room's transaction log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Transaction

			if err := client.Get("/api/v1/rooms/"+args[0]+"/transfers", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
