// seed_localidades genera el script SQL que carga las localidades (ubigeo INEI) en el almacén
// documental, a partir del XML de ubigeos.
//
// Uso: go run ./cmd/seed_localidades [ruta/ubigeos.xml]
// Por defecto lee ubigeos.xml del directorio actual.
// Escribe: internal/infrastructure/postgres/seeds/localidades.sql
//
// Formato esperado (atributos o elementos hijos):
//
//	<ubigeos>
//	  <ubigeo codigo="020101" departamento="ÁNCASH" provincia="HUARAZ" distrito="HUARAZ"/>
//	</ubigeos>
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Transporte-api/internal/domain/entity"
)

func main() {
	xmlPath := "ubigeos.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	locs, skipped, err := parseUbigeos(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "omitido: %s\n", s)
	}

	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "seeds", "localidades.sql")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, locs, uuid.NewString); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d localidades (%d omitidas)\n", outPath, len(locs), len(skipped))
}

// parseUbigeos lee los elementos <ubigeo>. Los de código distinto de 6 dígitos se devuelven en skipped.
func parseUbigeos(r io.Reader) (locs []*entity.Locality, skipped []string, err error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToUpper(charset) {
		case "ISO-8859-1", "ISO8859-1", "LATIN1":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		case "WINDOWS-1252", "CP1252":
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	for _, el := range doc.FindElements("//ubigeo") {
		loc := &entity.Locality{
			Ubigeo:     value(el, "codigo"),
			Department: strings.ToUpper(value(el, "departamento")),
			Province:   strings.ToUpper(value(el, "provincia")),
			District:   strings.ToUpper(value(el, "distrito")),
		}
		switch {
		case !isUbigeo(loc.Ubigeo):
			skipped = append(skipped, fmt.Sprintf("código %q inválido", loc.Ubigeo))
			continue
		case seen[loc.Ubigeo]:
			skipped = append(skipped, fmt.Sprintf("código %s repetido", loc.Ubigeo))
			continue
		}
		seen[loc.Ubigeo] = true
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].Ubigeo < locs[j].Ubigeo })
	return locs, skipped, nil
}

// value toma el atributo o, si no existe, el texto del hijo del mismo nombre.
func value(el *etree.Element, name string) string {
	if v := el.SelectAttrValue(name, ""); v != "" {
		return strings.TrimSpace(v)
	}
	if child := el.SelectElement(name); child != nil {
		return strings.TrimSpace(child.Text())
	}
	return ""
}

func isUbigeo(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// writeSQL emite un upsert por localidad contra entity_documents.
func writeSQL(w io.Writer, locs []*entity.Locality, newID func() string) error {
	fmt.Fprintln(w, "-- Localidades (ubigeo INEI)")
	fmt.Fprintln(w, "-- Generado por cmd/seed_localidades")
	fmt.Fprintln(w)
	for _, loc := range locs {
		body, err := documentBody(loc)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "INSERT INTO entity_documents (id, kind, natural_key, doc)\n")
		fmt.Fprintf(w, "VALUES ('%s', '%s', '%s', '%s'::jsonb)\n", newID(), entity.KindLocality, loc.Ubigeo, escapeSQL(body))
		fmt.Fprintln(w, "ON CONFLICT (kind, natural_key) WHERE active DO UPDATE SET doc = EXCLUDED.doc, updated_at = now();")
	}
	return nil
}

func documentBody(loc *entity.Locality) (string, error) {
	fields, err := entity.Fields(loc)
	if err != nil {
		return "", err
	}
	for _, k := range []string{"id", "active", "created_at", "updated_at"} {
		delete(fields, k)
	}
	raw, err := json.Marshal(fields)
	return string(raw), err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
