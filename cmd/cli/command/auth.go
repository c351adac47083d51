package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"yamdb/cmd/cli/command/client"
	"yamdb/internal/microservices/http-api/dto"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign up and obtain tokens",
	Long:  `Register with the YaMDb API and exchange the mailed confirmation code for a bearer token.`,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register, or resend the confirmation code for an existing registration",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.SignupRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Email, _ = cmd.Flags().GetString("email")

		resp, err := client.NewHTTPClient(apiURL).Signup(&req)
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		fmt.Printf("✓ Confirmation code sent to %s for %s.\n", resp.Email, resp.Username)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Exchange a confirmation code for a bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.TokenRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.ConfirmationCode, _ = cmd.Flags().GetString("code")

		resp, err := client.NewHTTPClient(apiURL).Token(&req)
		if err != nil {
			return fmt.Errorf("token exchange failed: %w", err)
		}
		// printed bare so it can be captured into YAMDB_TOKEN
		fmt.Println(resp.Token)
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the profile behind --token",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewHTTPClient(apiURL)
		c.SetToken(token)
		me, err := c.Me()
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> role=%s\n", me.Username, me.Email, me.Role)
		return nil
	},
}

func init() {
	authCmd.AddCommand(signupCmd)
	authCmd.AddCommand(tokenCmd)

	signupCmd.Flags().StringP("username", "u", "", "username to register")
	signupCmd.Flags().StringP("email", "e", "", "email the code is sent to")
	signupCmd.MarkFlagRequired("username")
	signupCmd.MarkFlagRequired("email")

	tokenCmd.Flags().StringP("username", "u", "", "registered username")
	tokenCmd.Flags().StringP("code", "c", "", "confirmation code from the email")
	tokenCmd.MarkFlagRequired("username")
	tokenCmd.MarkFlagRequired("code")
}
