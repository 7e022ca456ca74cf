package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func userPath(id, suffix string) string {
	return "/api/v1/users/" + url.PathEscape(id) + suffix
}

func newRegisterCmd() *cobra.Command {
	var (
		handle, question, answer string
		quiz                     map[string]string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register for the event and remember the user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"handle":                handle,
				"quiz_answers":          quiz,
				"verification_question": question,
				"verification_answer":   answer,
			}
			var result RegisterResult

			if err := client.Post("/api/v1/users", req, &result); err != nil {
				return err
			}

			// Save user id
			if err := cfg.SaveUserID(result.UserID); err != nil {
				return fmt.Errorf("failed to save user id: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&handle, "handle", "", "Your handle, kept hidden from your partner (required)")
	cmd.Flags().StringVar(&question, "question", "", "Question your partner can ask to find you (required)")
	cmd.Flags().StringVar(&answer, "answer", "", "Your answer to that question (required)")
	cmd.Flags().StringToStringVar(&quiz, "quiz", map[string]string{}, "Quiz answers as short_id=option pairs")
	_ = cmd.MarkFlagRequired("handle")
	_ = cmd.MarkFlagRequired("question")
	_ = cmd.MarkFlagRequired("answer")

	return cmd
}

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show your registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireUserID()
			if err != nil {
				return err
			}

			var result User
			if err := client.Get(userPath(id, ""), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your match status",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireUserID()
			if err != nil {
				return err
			}

			var result StatusResult
			if err := client.Get(userPath(id, "/status"), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify CODE",
		Short: "Guess your partner's display code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireUserID()
			if err != nil {
				return err
			}

			var result VerifyResult
			if err := client.Post(userPath(id, "/verify"), map[string]string{"code": args[0]}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Leave the event, deleting your registration and match",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireUserID()
			if err != nil {
				return err
			}

			if err := client.Delete(userPath(id, "")); err != nil {
				return err
			}

			if err := cfg.ClearUserID(); err != nil {
				return fmt.Errorf("failed to clear user id: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Left the event")
			return nil
		},
	}
}
