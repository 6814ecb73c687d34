package drtc

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// pesos para el dígito verificador del RUC (SUNAT). Se aplican a los 10 primeros dígitos.
var rucWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

var (
	rucPattern       = regexp.MustCompile(`^\d{11}$`)
	dniPattern       = regexp.MustCompile(`^\d{8}$`)
	plateCompact     = regexp.MustCompile(`^[A-Z0-9]{5,7}$`)
	platePattern     = regexp.MustCompile(`^[A-Z0-9]{2,3}-[A-Z0-9]{3,4}$`)
	routeCodePattern = regexp.MustCompile(`^\d{2}$`)
)

// PlaceholderDNI es el DNI de relleno aceptado para representantes sin documento registrado.
const PlaceholderDNI = "00000000"

// NormalizeRUC quita espacios, puntos y guiones. No valida.
func NormalizeRUC(s string) string {
	return stripSeparators(strings.ToUpper(strings.TrimSpace(s)))
}

// ValidateRUC exige exactamente 11 dígitos.
func ValidateRUC(ruc string) error {
	if !rucPattern.MatchString(ruc) {
		return fmt.Errorf("drtc: RUC debe tener 11 dígitos, se recibió %q", ruc)
	}
	return nil
}

// ComputeRUCCheckDigit calcula el dígito verificador (módulo 11) sobre los 10 primeros dígitos.
func ComputeRUCCheckDigit(ruc string) (byte, error) {
	digits := extractDigits(ruc)
	if len(digits) < 10 {
		return 0, fmt.Errorf("drtc: se requieren 10 dígitos para calcular el verificador, se encontraron %d", len(digits))
	}
	var sum int
	for i, d := range digits[:10] {
		sum += int(d-'0') * rucWeights[i]
	}
	check := 11 - sum%11
	switch check {
	case 10:
		check = 0
	case 11:
		check = 1
	}
	return byte('0' + check), nil
}

// ValidateRUCCheckDigit valida formato y dígito verificador.
func ValidateRUCCheckDigit(ruc string) error {
	if err := ValidateRUC(ruc); err != nil {
		return err
	}
	expected, err := ComputeRUCCheckDigit(ruc)
	if err != nil {
		return err
	}
	if ruc[10] != expected {
		return fmt.Errorf("drtc: dígito verificador del RUC inválido: esperado %c, recibido %c", expected, ruc[10])
	}
	return nil
}

// NormalizeDNI quita separadores y completa con ceros a la izquierda los DNI de 7 dígitos
// que las hojas de cálculo suelen perder al tratarlos como número.
func NormalizeDNI(s string) string {
	d := stripSeparators(strings.TrimSpace(s))
	if len(d) == 7 && isDigits(d) {
		d = "0" + d
	}
	return d
}

// ValidateDNI exige exactamente 8 dígitos; PlaceholderDNI es válido.
func ValidateDNI(dni string) error {
	if !dniPattern.MatchString(dni) {
		return fmt.Errorf("drtc: DNI debe tener 8 dígitos, se recibió %q", dni)
	}
	return nil
}

// NormalizePlate lleva la placa a mayúsculas con un único guion: "abc 123" -> "ABC-123".
// Sin guion y con 6 caracteres, el guion se inserta tras el tercero.
func NormalizePlate(s string) string {
	p := strings.ToUpper(strings.TrimSpace(s))
	p = strings.NewReplacer(" ", "", ".", "", "_", "", "—", "-", "–", "-").Replace(p)
	for strings.Contains(p, "--") {
		p = strings.ReplaceAll(p, "--", "-")
	}
	p = strings.Trim(p, "-")
	if !strings.Contains(p, "-") && plateCompact.MatchString(p) && len(p) == 6 {
		p = p[:3] + "-" + p[3:]
	}
	return p
}

// ValidatePlate aplica la gramática regional: 2-3 alfanuméricos, guion, 3-4 alfanuméricos,
// con al menos una letra.
func ValidatePlate(plate string) error {
	if !platePattern.MatchString(plate) || !strings.ContainsFunc(plate, unicode.IsLetter) {
		return fmt.Errorf("drtc: placa %q no cumple el formato AAA-999", plate)
	}
	return nil
}

// NormalizeRouteCode completa a dos dígitos: "1" -> "01".
func NormalizeRouteCode(s string) string {
	c := stripSeparators(strings.TrimSpace(s))
	if len(c) == 1 && isDigits(c) {
		c = "0" + c
	}
	return c
}

// ValidateRouteCode exige dos dígitos.
func ValidateRouteCode(code string) error {
	if !routeCodePattern.MatchString(code) {
		return fmt.Errorf("drtc: código de ruta debe tener 2 dígitos, se recibió %q", code)
	}
	return nil
}

// CanonicalResolutionNumber normaliza el número de resolución para comparación:
// mayúsculas y espacios internos colapsados.
func CanonicalResolutionNumber(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

func stripSeparators(s string) string {
	return strings.NewReplacer(" ", "", ".", "", "-", "", "_", "", "/", "").Replace(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
