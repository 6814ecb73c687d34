package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Transporte-api/pkg/config"
	"github.com/jhoicas/Transporte-api/pkg/jwt"
)

// newTokenCmd emite un JWT firmado con JWT_SECRET para operar la API.
func newTokenCmd() *cobra.Command {
	var user, office, role string
	var minutes int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un token de acceso para la API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleViewer:
			default:
				return withCode(exitUsage, fmt.Errorf("rol desconocido %q", role))
			}
			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, err)
			}
			if cfg.JWT.Secret == "" {
				return withCode(exitUsage, errors.New("JWT_SECRET no configurado"))
			}
			if minutes <= 0 {
				minutes = cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, user, office, role, cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "usuario", "", "Identificador del usuario (requerido)")
	cmd.Flags().StringVar(&office, "oficina", "", "Oficina regional")
	cmd.Flags().StringVar(&role, "rol", jwt.RoleViewer, "admin | operador | consulta")
	cmd.Flags().IntVar(&minutes, "minutos", 0, "Vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	_ = cmd.MarkFlagRequired("usuario")
	return cmd
}
