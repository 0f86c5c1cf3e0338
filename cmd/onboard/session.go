package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"DriverOnboard/internal/model"
)

func healthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.Health(cmd.Context()); err != nil {
				return err
			}
			a.print(map[string]bool{"ok": true}, "ok")
			return nil
		},
	}
}

func sendOTPCmd(a *app) *cobra.Command {
	var acceptTerms bool
	cmd := &cobra.Command{
		Use:   "send-otp <10-digit-number>",
		Short: "Request an OTP for a mobile number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ob.Session.SendOTP(cmd.Context(), args[0], acceptTerms); err != nil {
				return err
			}
			a.print(map[string]bool{"sent": true}, "OTP sent")
			return nil
		},
	}
	cmd.Flags().BoolVar(&acceptTerms, "accept-terms", false, "Agree to the Terms of Use and Privacy Policy")
	return cmd
}

func verifyOTPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-otp <code>",
		Short: "Verify the OTP and start registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dec, err := a.ob.Session.VerifyOTP(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.print(dec, describe(dec))
			return nil
		},
	}
}

func launchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Show where the app would open",
		RunE: func(cmd *cobra.Command, args []string) error {
			dec, err := a.ob.Session.Launch(cmd.Context())
			if err != nil {
				return err
			}
			a.print(dec, describe(dec))
			return nil
		},
	}
}

func refreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Check whether the registration has been approved",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.ob.Session.RefreshVerification(cmd.Context())
			if err != nil {
				return err
			}
			text := "Verification pending"
			if ok {
				text = "Verified"
			}
			a.print(map[string]bool{"verified": ok}, text)
			return nil
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ob.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			a.print(map[string]bool{"loggedOut": true}, "Logged out")
			return nil
		},
	}
}

func describe(dec model.LaunchDecision) string {
	if dec.Route == model.RouteRegistration && dec.Section != "" {
		return fmt.Sprintf("%s: %s", dec.Route, dec.Section.Title())
	}
	return string(dec.Route)
}

func describeRecord(rec model.CompletionRecord) string {
	var sb strings.Builder
	for _, s := range model.Sections() {
		mark := " "
		if rec.Get(s) {
			mark = "x"
		}
		fmt.Fprintf(&sb, "[%s] %s\n", mark, s.Title())
	}
	fmt.Fprintf(&sb, "%d/%d complete", rec.CompletedCount(), len(model.Sections()))
	return sb.String()
}
