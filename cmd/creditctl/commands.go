package main

import (
	"context"
	"fmt"
	"strconv"

	creditv1 "github.com/MarkoPoloResearchLab/pixelcredits/api/credit/v1"
	"github.com/spf13/cobra"
)

func (app *cli) accountCommand() *cobra.Command {
	account := &cobra.Command{Use: "account", Short: "Inspect and manage accounts"}

	var byEmail bool
	get := &cobra.Command{
		Use:   "get <account-id|email>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &creditv1.GetAccountRequest{AccountId: args[0]}
			if byEmail {
				request = &creditv1.GetAccountRequest{Email: args[0]}
			}
			return app.call(cmd, func(ctx context.Context, client creditv1.CreditAdminClient) (any, error) {
				return client.GetAccount(ctx, request)
			})
		},
	}
	get.Flags().BoolVar(&byEmail, "email", false, "treat the argument as an email")

	var role string
	var initialCredits int64
	create := &cobra.Command{
		Use:   "create <email>",
		Short: "Create an account; without --role the server's signup defaults apply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &creditv1.CreateAccountRequest{Email: args[0], Role: role, InitialCredits: initialCredits}
			return app.call(cmd, func(ctx context.Context, client creditv1.CreditAdminClient) (any, error) {
				return client.CreateAccount(ctx, request)
			})
		},
	}
	create.Flags().StringVar(&role, "role", "", "user or admin")
	create.Flags().Int64Var(&initialCredits, "credits", 0, "initial balance when --role is set")

	grant := &cobra.Command{
		Use:   "grant <account-id> <amount>",
		Short: "Add credits to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return app.call(cmd, func(ctx context.Context, client creditv1.CreditAdminClient) (any, error) {
				return client.GrantCredits(ctx, &creditv1.GrantCreditsRequest{AccountId: args[0], Amount: amount})
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <account-id> <balance>",
		Short: "Overwrite an account balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return app.call(cmd, func(ctx context.Context, client creditv1.CreditAdminClient) (any, error) {
				return client.SetCredits(ctx, &creditv1.SetCreditsRequest{AccountId: args[0], Amount: amount})
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete <account-id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.call(cmd, func(ctx context.Context, client creditv1.CreditAdminClient) (any, error) {
				return client.DeleteAccount(ctx, &creditv1.DeleteAccountRequest{AccountId: args[0]})
			})
		},
	}

	account.AddCommand(get, create, grant, set, remove)
	return account
}

func (app *cli) requestCommand() *cobra.Command {
	request := &cobra.Command{Use: "request", Short: "Review purchase requests"}

	var accountID, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List purchase requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.call(cmd, func(ctx context.Context, client creditv1.CreditAdminClient) (any, error) {
				return client.ListRequests(ctx, &creditv1.ListRequestsRequest{AccountId: accountID, Status: status})
			})
		},
	}
	list.Flags().StringVar(&accountID, "account", "", "only requests of this account")
	list.Flags().StringVar(&status, "status", "", "Pending, Approved or Rejected")

	request.AddCommand(
		list,
		app.statusCommand("approve", "Approve a request and award its credits", "Approved"),
		app.statusCommand("reject", "Reject a request", "Rejected"),
		app.statusCommand("set-status", "Move a request to the given status", ""),
	)
	return request
}

// statusCommand builds a SetRequestStatus subcommand; an empty target reads it from the second argument.
func (app *cli) statusCommand(use string, short string, target string) *cobra.Command {
	positional := cobra.ExactArgs(1)
	usage := use + " <request-id>"
	if target == "" {
		positional = cobra.ExactArgs(2)
		usage = use + " <request-id> <status>"
	}
	return &cobra.Command{
		Use:   usage,
		Short: short,
		Args:  positional,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := target
			if status == "" {
				status = args[1]
			}
			return app.call(cmd, func(ctx context.Context, client creditv1.CreditAdminClient) (any, error) {
				return client.SetRequestStatus(ctx, &creditv1.SetRequestStatusRequest{RequestId: args[0], Status: status})
			})
		},
	}
}

func (app *cli) planCommand() *cobra.Command {
	plan := &cobra.Command{Use: "plan", Short: "Manage the plan catalog"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.call(cmd, func(ctx context.Context, client creditv1.CreditAdminClient) (any, error) {
				return client.ListPlans(ctx, &creditv1.ListPlansRequest{})
			})
		},
	}

	request := &creditv1.CreatePlanRequest{}
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Add a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request.Name = args[0]
			return app.call(cmd, func(ctx context.Context, client creditv1.CreditAdminClient) (any, error) {
				return client.CreatePlan(ctx, request)
			})
		},
	}
	create.Flags().StringVar(&request.Description, "description", "", "plan description")
	create.Flags().StringVar(&request.Type, "type", "Normal", "Free, Normal, Pro or Daily")
	create.Flags().Int64Var(&request.Price, "price", 0, "price in whole currency units")
	create.Flags().Int64Var(&request.Credits, "credits", 0, "credits awarded on approval")
	create.Flags().Int32Var(&request.DurationDays, "duration-days", 0, "validity in days (required for Daily)")
	create.Flags().Int64Var(&request.DailyCreditAmount, "daily-credits", 0, "credits granted per day (Daily only)")

	plan.AddCommand(list, create)
	return plan
}

func parseAmount(raw string) (int64, error) {
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not an integer", raw)
	}
	return amount, nil
}
