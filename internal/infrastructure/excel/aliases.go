package excel

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jhoicas/Transporte-api/pkg/drtc"
)

//go:embed aliases.yaml
var aliasesYAML []byte

var (
	aliasOnce  sync.Once
	aliasTable map[string][]string
	aliasIndex map[string]string // forma plegada -> canónico
)

// annotations son las marcas que la plantilla y los usuarios agregan a los encabezados.
var annotations = regexp.MustCompile(`(?i)\s*\((\*|required|requerido|obligatorio|opcional|optional)\)\s*`)

func loadAliases() {
	aliasOnce.Do(func() {
		table, index, err := parseAliases(aliasesYAML)
		if err != nil {
			panic(fmt.Sprintf("excel: tabla de alias embebida inválida: %v", err))
		}
		aliasTable, aliasIndex = table, index
	})
}

// parseAliases construye el índice y rechaza variantes que apunten a dos canónicos distintos.
func parseAliases(raw []byte) (map[string][]string, map[string]string, error) {
	var table map[string][]string
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, nil, err
	}
	index := make(map[string]string)
	add := func(variant, canonical string) error {
		key := drtc.Fold(variant)
		if prev, ok := index[key]; ok && prev != canonical {
			return fmt.Errorf("%q apunta a %q y a %q", variant, prev, canonical)
		}
		index[key] = canonical
		return nil
	}
	for canonical, variants := range table {
		if err := add(canonical, canonical); err != nil {
			return nil, nil, err
		}
		for _, v := range variants {
			if err := add(v, canonical); err != nil {
				return nil, nil, err
			}
		}
	}
	return table, index, nil
}

// Aliases devuelve una copia de la tabla {canónico: [alias]}.
func Aliases() map[string][]string {
	loadAliases()
	out := make(map[string][]string, len(aliasTable))
	for k, v := range aliasTable {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// CanonicalHeader limpia un encabezado (espacios, "(*)", "(obligatorio)", asterisco final) y lo
// traduce por la tabla de alias. Un encabezado desconocido se devuelve limpio pero sin traducir.
func CanonicalHeader(raw string) string {
	loadAliases()
	h := strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	h = annotations.ReplaceAllString(h, " ")
	h = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(h), "*"))
	h = strings.Join(strings.Fields(h), " ")
	if canonical, ok := aliasIndex[drtc.Fold(h)]; ok {
		return canonical
	}
	return h
}
