package main

import (
	"context"
	"fmt"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/auth"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/service"

	"github.com/go-extras/cobraflags"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

const (
	emailFlag    = "email"
	nombreFlag   = "nombre"
	passwordFlag = "password"
)

var seedFlags = map[string]cobraflags.Flag{
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Value: "",
		Usage: "Email of the new user (required)",
	},
	nombreFlag: &cobraflags.StringFlag{
		Name:  nombreFlag,
		Value: "Administrador",
		Usage: "Display name of the new user",
	},
	passwordFlag: &cobraflags.StringFlag{
		Name:  passwordFlag,
		Value: "",
		Usage: "Initial password, 8 to 72 characters (required)",
	},
}

func newUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage platform users",
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Register a user with the same rules as POST /v1/auth/register",
		Example: `  tiendactl users seed --email admin@example.com --password s3cr3t-pass`,
		RunE: seedUser,
	}
	cobraflags.RegisterMap(seed, seedFlags)

	cmd.AddCommand(seed)
	return cmd
}

func seedUser(cmd *cobra.Command, _ []string) error {
	req := dto.RegistroRequest{
		Nombre:   seedFlags[nombreFlag].GetString(),
		Email:    seedFlags[emailFlag].GetString(),
		Password: seedFlags[passwordFlag].GetString(),
	}
	if err := validator.New().Struct(req); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	creds := auth.NewCredentials(cfg.JWTSecret, time.Duration(cfg.JWTExpirationHours)*time.Hour, cfg.BcryptCost)
	svc := service.NewAuthService(repository.NewUsuarioRepository(reg), repository.NewTiendaRepository(reg), creds)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	u, err := svc.Registrar(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created user %s <%s>\n", u.ID, u.Email)
	return nil
}
