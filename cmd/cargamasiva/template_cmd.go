package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/excel"
)

func newTemplateCmd() *cobra.Command {
	var kindFlag, output string
	cmd := &cobra.Command{
		Use:   "plantilla",
		Short: "Genera la plantilla xlsx de un tipo de carga",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := ingestion.ParseKind(kindFlag)
			if err != nil {
				return withCode(exitUsage, err)
			}
			data, err := excel.NewWorkbook().Build(kind, ingestion.Columns(kind))
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("plantilla_%s.xlsx", kind)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "plantilla escrita en %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "tipo", "", "empresas | resoluciones | vehiculos | rutas (requerido)")
	cmd.Flags().StringVar(&output, "salida", "", "Ruta del xlsx (por defecto plantilla_<tipo>.xlsx)")
	_ = cmd.MarkFlagRequired("tipo")
	return cmd
}
