// cargamasiva procesa libros Excel del registro desde la línea de comandos.
//
// Uso:
//
//	cargamasiva validar --tipo vehiculos archivo.xlsx
//	cargamasiva aplicar --tipo empresas archivo.xlsx
//	cargamasiva plantilla --tipo rutas --salida plantilla_rutas.xlsx
//	cargamasiva token --usuario ana --rol operador
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	memory bool
}

func newRootCmd() *cobra.Command {
	var g globalOptions
	cmd := &cobra.Command{
		Use:           "cargamasiva",
		Short:         "Carga masiva del registro de transporte desde Excel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&g.memory, "memoria", false, "Usar almacén en memoria (no persiste)")

	cmd.AddCommand(newUploadCmd(&g, true))
	cmd.AddCommand(newUploadCmd(&g, false))
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}
