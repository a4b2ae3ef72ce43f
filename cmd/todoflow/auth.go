package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Deepanshu954/TodoFlow/internal/session"
)

type whoami struct {
	Mode      string     `json:"mode"`
	UserID    string     `json:"user_id,omitempty"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to your account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(cmd.Context(), email, password, (*session.Provider).Login)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func signupCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(cmd.Context(), email, password, (*session.Provider).SignUp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

type authFunc func(p *session.Provider, ctx context.Context, email, password string) (session.State, error)

func authenticate(ctx context.Context, email, password string, fn authFunc) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("--email required")
	}
	if password == "" {
		var err error
		if password, err = promptPassword(); err != nil {
			return err
		}
	}

	return withRuntime(ctx, func(ctx context.Context, rt *runtime) error {
		before := rt.sessions.Current().Epoch
		st, err := fn(rt.sessions, ctx, email, password)
		if st.Epoch == before {
			return err
		}
		if err := rt.marker.Set(ctx, false); err != nil {
			rt.log.Warn("clearing guest marker", "err", err)
		}
		if err != nil {
			// Signed in, but the first load failed.
			rt.log.Warn("loading tasks", "err", err)
		}
		fmt.Printf("Signed in as %s\n", st.Identity.Email)
		return nil
	})
}

func promptPassword() (string, error) {
	var password string
	err := huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&password).
		Validate(func(s string) error {
			if s == "" {
				return errors.New("password required")
			}
			return nil
		}).
		Run()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				if err := rt.marker.Set(ctx, false); err != nil {
					return err
				}
				if _, err := rt.sessions.Logout(ctx); err != nil {
					return err
				}
				fmt.Println("Signed out")
				return nil
			})
		},
	}
}

func guestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guest",
		Short: "Continue without an account, keeping tasks on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				if rt.sessions.CurrentMode() == session.ModeAuthenticated {
					if _, err := rt.sessions.Logout(ctx); err != nil {
						return err
					}
				}
				if _, err := rt.sessions.SkipAuth(ctx); err != nil {
					return err
				}
				if err := rt.marker.Set(ctx, true); err != nil {
					return err
				}
				fmt.Println("Using guest mode")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				st := rt.sessions.Current()
				out := whoami{Mode: st.Mode.String()}
				if st.Identity != nil {
					out.UserID = st.Identity.UserID
					out.Email = st.Identity.Email
					if !st.Identity.ExpiresAt.IsZero() {
						exp := st.Identity.ExpiresAt
						out.ExpiresAt = &exp
					}
				}
				if viper.GetBool("json") {
					return printJSON(out)
				}

				switch st.Mode {
				case session.ModeAuthenticated:
					fmt.Printf("%s (%s)\n", out.Email, out.UserID)
				case session.ModeGuest:
					fmt.Println("guest")
				default:
					fmt.Println("not signed in")
				}
				return nil
			})
		},
	}
}
