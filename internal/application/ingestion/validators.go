package ingestion

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Transporte-api/internal/domain/vigencia"
	"github.com/jhoicas/Transporte-api/pkg/drtc"
)

const (
	minVehicleYear = 1950
	maxSeats       = 120
)

// dateLayouts son los formatos de fecha aceptados, en orden de prueba.
var dateLayouts = []string{
	"2/1/2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2-1-2006",
}

var validate = validator.New()

// cells lee las celdas de una fila y acumula los problemas en el encabezado de la fila.
type cells struct {
	row  SheetRow
	head *RowHeader
	opts Options
	now  time.Time
}

func (c *cells) fail(i Issue) { c.head.Issues = append(c.head.Issues, i) }

// raw devuelve la celda limpia: sin comilla de texto inicial, sin espacios duros ni de ancho cero.
func (c *cells) raw(column string) string {
	return cleanCell(c.row.Get(column))
}

// text devuelve nil si la celda está vacía.
func (c *cells) text(column string) *string {
	v := strings.Join(strings.Fields(c.raw(column)), " ")
	if v == "" {
		return nil
	}
	return &v
}

// upper es text en mayúsculas.
func (c *cells) upper(column string) *string {
	v := c.text(column)
	if v == nil {
		return nil
	}
	u := strings.ToUpper(*v)
	return &u
}

// mandatory registra la columna como faltante si está vacía.
func (c *cells) mandatory(column string, present bool) {
	if !present {
		c.head.Missing = append(c.head.Missing, column)
	}
}

// key lee una clave natural: siempre obligatoria, normalizada y validada.
func (c *cells) key(column string, normalize func(string) string, check func(string) error) string {
	v := c.raw(column)
	if v == "" {
		c.fail(mandatoryMissing(column))
		return ""
	}
	v = normalize(v)
	if check != nil {
		if err := check(v); err != nil {
			c.fail(fieldInvalid(column, "%v", trimPkg(err)))
			return ""
		}
	}
	return v
}

// ruc lee un RUC opcional; con StrictRUC también verifica el dígito.
func (c *cells) ruc(column string) *string {
	v := c.raw(column)
	if v == "" {
		return nil
	}
	v = drtc.NormalizeRUC(numericText(v))
	if err := c.checkRUC(v); err != nil {
		c.fail(fieldInvalid(column, "%v", trimPkg(err)))
		return nil
	}
	return &v
}

func (c *cells) checkRUC(v string) error {
	if c.opts.StrictRUC {
		return drtc.ValidateRUCCheckDigit(v)
	}
	return drtc.ValidateRUC(v)
}

func (c *cells) dni(column string) *string {
	v := c.raw(column)
	if v == "" {
		return nil
	}
	v = drtc.NormalizeDNI(numericText(v))
	if err := drtc.ValidateDNI(v); err != nil {
		c.fail(fieldInvalid(column, "%v", trimPkg(err)))
		return nil
	}
	return &v
}

func (c *cells) resolutionNumber(column string) *string {
	v := c.text(column)
	if v == nil {
		return nil
	}
	n := drtc.CanonicalResolutionNumber(*v)
	return &n
}

// enum resuelve contra un catálogo cerrado; valores desconocidos fallan.
func (c *cells) enum(column string, cat drtc.Catalogue) *string {
	v := c.text(column)
	if v == nil {
		return nil
	}
	canonical, ok := cat.Lookup(*v)
	if !ok {
		c.fail(fieldInvalid(column, "%q no es un %s válido (%s)", *v, cat.Name, strings.Join(cat.Values(), ", ")))
		return nil
	}
	return &canonical
}

// date acepta DD/MM/AAAA, AAAA-MM-DD, ISO con hora y el número de serie de Excel.
func (c *cells) date(column string) *time.Time {
	v := c.raw(column)
	if v == "" {
		return nil
	}
	t, ok := parseDate(v)
	if !ok {
		c.fail(fieldInvalid(column, "fecha %q no reconocida (use DD/MM/AAAA o AAAA-MM-DD)", v))
		return nil
	}
	return &t
}

// Rango de números de serie de Excel aceptados como fecha: 01/01/1950 a 31/12/9999.
// Un texto como "2025" no es una fecha.
const (
	minDateSerial = 18264
	maxDateSerial = 2958466
)

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return vigencia.DateOnly(t), true
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial >= minDateSerial && serial < maxDateSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return vigencia.DateOnly(t), true
		}
	}
	return time.Time{}, false
}

// integer exige un entero en [min, max].
func (c *cells) integer(column string, min, max int) *int {
	v := c.raw(column)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil || f != math.Trunc(f) {
		c.fail(fieldInvalid(column, "%q no es un entero", v))
		return nil
	}
	n := int(f)
	if n < min || n > max {
		c.fail(fieldInvalid(column, "%d fuera de rango [%d, %d]", n, min, max))
		return nil
	}
	return &n
}

func (c *cells) year(column string) *int {
	return c.integer(column, minVehicleYear, c.now.Year()+1)
}

func (c *cells) vigencyYears(column string) *int {
	return c.integer(column, vigencia.MinYears, vigencia.MaxYears)
}

// amount lee un decimal no negativo.
func (c *cells) amount(column string) *decimal.Decimal {
	v := c.raw(column)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
	if err != nil {
		c.fail(fieldInvalid(column, "%q no es un número", v))
		return nil
	}
	if d.IsNegative() {
		c.fail(fieldInvalid(column, "%s no puede ser negativo", v))
		return nil
	}
	return &d
}

// phones acepta varios números separados por espacios, comas o punto y coma.
func (c *cells) phones(column string) *string {
	v := c.raw(column)
	if v == "" {
		return nil
	}
	parts := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '/' || r == '\n'
	})
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Trim(p, "0123456789+-()") != "" {
			c.fail(fieldInvalid(column, "teléfono %q contiene caracteres no válidos", p))
			return nil
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	joined := strings.Join(out, ",")
	return &joined
}

// email pasa a minúsculas y valida formato y, si está configurada, la política de dominios.
func (c *cells) email(column string) *string {
	v := strings.ToLower(c.raw(column))
	if v == "" {
		return nil
	}
	if err := validate.Var(v, "required,email"); err != nil {
		c.fail(fieldInvalid(column, "correo %q no es válido", v))
		return nil
	}
	if len(c.opts.EmailDomains) > 0 {
		allowed := false
		for _, d := range c.opts.EmailDomains {
			d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
			if d != "" && (strings.HasSuffix(v, "@"+d) || strings.HasSuffix(v, "."+d)) {
				allowed = true
				break
			}
		}
		if !allowed {
			c.fail(fieldInvalid(column, "el dominio de %q no está permitido (%s)", v, strings.Join(c.opts.EmailDomains, ", ")))
			return nil
		}
	}
	return &v
}

// cleanCell quita decoraciones que Excel y los usuarios dejan en las celdas.
func cleanCell(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u00a0', '\u2007', '\u202f':
			return ' '
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimPrefix(s, "'"))
}

// numericText deshace la notación científica con que Excel guarda números largos: "2.0123456789E+10".
func numericText(s string) string {
	if !strings.ContainsAny(s, "eE") {
		return strings.TrimSuffix(s, ".0")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return s
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}

func trimPkg(err error) string {
	return strings.TrimPrefix(err.Error(), "drtc: ")
}
