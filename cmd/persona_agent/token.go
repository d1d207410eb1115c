package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-engine/internal/config"
	"github.com/jonathan/persona-engine/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API client credentials",
}

var tokenHashCmd = &cobra.Command{
	Use:   "hash SECRET",
	Short: "Print the bcrypt hash of a client secret for auth.client_secret_hash",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenHash,
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign a bearer token with the configured JWT secret",
	RunE:  runTokenIssue,
}

var tokenClientID string

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenClientID, "client-id", "", "Token subject (default auth.client_id)")
	tokenCmd.AddCommand(tokenHashCmd, tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenHash(cmd *cobra.Command, args []string) error {
	svc, err := setup(cmd)
	if err != nil {
		return err
	}
	defer svc.close()

	secrets, err := config.NewSecretConfig(svc.cfg.Auth)
	if err != nil {
		return err
	}
	hash, err := secrets.HashSecret(args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return err
}

func runTokenIssue(cmd *cobra.Command, _ []string) error {
	svc, err := setup(cmd)
	if err != nil {
		return err
	}
	defer svc.close()

	if !svc.cfg.AuthEnabled() {
		return errors.New("auth.jwt_secret is not configured")
	}
	jwtCfg, err := config.NewJWTConfig(svc.cfg.Auth)
	if err != nil {
		return err
	}
	clientID := tokenClientID
	if clientID == "" {
		clientID = svc.cfg.Auth.ClientID
	}
	token, err := server.NewTokenService(jwtCfg).Issue(clientID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
