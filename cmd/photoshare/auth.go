package main

import (
	"fmt"
	"strings"

	"photoshare/internal/models"
	"photoshare/internal/screens"
	"photoshare/internal/validation"

	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authPassword string
	authConfirm  string
	authRole     string
)

func init() {
	for _, cmd := range []*cobra.Command{cmdLogin, cmdSignup} {
		cmd.Flags().StringVar(&authEmail, "email", "", "Account email")
		cmd.Flags().StringVar(&authPassword, "password", "", "Password (read from stdin when empty)")
	}
	cmdSignup.Flags().StringVar(&authConfirm, "confirm", "", "Password confirmation (defaults to --password)")
	cmdSignup.Flags().StringVar(&authRole, "role", string(models.RoleUser), "creator, user or viewer")
}

// readSecret returns flag, or asks for it when flag is empty.
func readSecret(p *prompter, flag, prompt string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return p.Secret(prompt)
}

var cmdLogin = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readSecret(newPrompter(cmd), authPassword, "Password: ")
		if err != nil {
			return err
		}
		screen := screens.NewLogin(current.client, current.store, current.nav, current.logger)
		res, err := screen.Submit(cmd.Context(), models.Credentials{Email: strings.TrimSpace(authEmail), Password: password})
		if err != nil {
			return userError(err, screen.Err())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s. Home: %s\n", current.store.Role().Label(), res.Path)
		return nil
	},
}

var cmdSignup = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)
		password, err := readSecret(p, authPassword, "Password: ")
		if err != nil {
			return err
		}
		confirm := authConfirm
		if confirm == "" && authPassword == "" {
			if confirm, err = readSecret(p, "", "Confirm password: "); err != nil {
				return err
			}
		} else if confirm == "" {
			confirm = password
		}

		screen := screens.NewSignup(current.client, current.nav, current.logger)
		_, err = screen.Submit(cmd.Context(), validation.SignupForm{
			Email:           authEmail,
			Password:        password,
			ConfirmPassword: confirm,
			Role:            models.ParseRole(authRole),
		})
		if err != nil {
			return userError(err, screen.Err())
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Account created. Run `photoshare login` to sign in.")
		return nil
	},
}

var cmdLogout = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		screen := screens.NewProfile(current.client, current.store, current.nav, current.logger)
		screen.Logout(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var cmdWhoami = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"profile"},
	Short:   "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !current.store.IsAuthenticated() {
			return errNotSignedIn
		}
		screen := screens.NewProfile(current.client, current.store, current.nav, current.logger)
		screen.Load(cmd.Context())

		w := cmd.OutOrStdout()
		email := screen.Email()
		if email == "" {
			email = "Your Account"
		}
		if initials := screen.Initials(); initials != "" {
			fmt.Fprintf(w, "[%s] ", initials)
		}
		fmt.Fprintf(w, "%s\nSigned in as %s\n", email, screen.RoleLabel())
		return nil
	},
}
