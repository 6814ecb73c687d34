package entity

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// Kind identifica el tipo de entidad y, en el almacén documental, su colección.
type Kind string

const (
	KindCompany    Kind = "empresa"
	KindResolution Kind = "resolucion"
	KindVehicle    Kind = "vehiculo"
	KindRoute      Kind = "ruta"
	KindLocality   Kind = "localidad"
	KindExpediente Kind = "expediente"
)

// ApplyOrder es el orden fijo de aplicación dentro de un lote: toda referencia apunta a un tipo anterior.
var ApplyOrder = []Kind{KindCompany, KindResolution, KindVehicle, KindRoute}

// Rank devuelve la posición del tipo en ApplyOrder (los tipos fuera del orden van al final).
func (k Kind) Rank() int {
	for i, o := range ApplyOrder {
		if o == k {
			return i
		}
	}
	return len(ApplyOrder)
}

// Meta son los campos comunes de todo documento. Se serializa aplanado dentro del documento.
type Meta struct {
	ID        string    `json:"id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetMeta da acceso a los campos comunes.
func (m *Meta) GetMeta() *Meta { return m }

// Record es cualquier entidad persistible por el almacén.
type Record interface {
	Kind() Kind
	NaturalKey() string
	GetMeta() *Meta
}

// Diff son mutaciones campo a campo, con el nombre JSON del campo como clave.
type Diff map[string]any

// New construye un registro vacío del tipo indicado.
func New(kind Kind) (Record, error) {
	switch kind {
	case KindCompany:
		return &Company{}, nil
	case KindResolution:
		return &Resolution{}, nil
	case KindVehicle:
		return &Vehicle{}, nil
	case KindRoute:
		return &Route{}, nil
	case KindLocality:
		return &Locality{}, nil
	case KindExpediente:
		return &Expediente{}, nil
	}
	return nil, fmt.Errorf("tipo de entidad desconocido: %q", kind)
}

// Decode reconstruye un registro desde su documento JSON.
func Decode(kind Kind, doc []byte) (Record, error) {
	rec, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return rec, nil
}

// Fields devuelve el documento del registro como mapa (valores en su forma JSON).
func Fields(rec Record) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ApplyDiff devuelve una copia del registro con el diff aplicado.
func ApplyDiff(rec Record, diff Diff) (Record, error) {
	m, err := Fields(rec)
	if err != nil {
		return nil, err
	}
	for k, v := range diff {
		m[k] = v
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return Decode(rec.Kind(), raw)
}

// Clone copia profunda vía JSON.
func Clone(rec Record) (Record, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return Decode(rec.Kind(), raw)
}

// SameValue compara dos valores por su forma JSON.
func SameValue(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ra) == string(rb)
}

// ── enlaces bidireccionales ─────────────────────────────────────────────────

// LinkField describe una referencia hijo→padre declarada con la etiqueta `link:"<tipo>,<arreglo>"`.
// El arreglo del padre contiene los IDs de los hijos que lo referencian.
type LinkField struct {
	Field       string // nombre JSON del campo de referencia en el hijo
	ParentKind  Kind
	ParentArray string // nombre JSON del arreglo en el padre
	index       []int
}

var linkCache sync.Map // Kind -> []LinkField

// LinkFields descubre por inspección los campos de enlace del tipo.
func LinkFields(kind Kind) []LinkField {
	if v, ok := linkCache.Load(kind); ok {
		return v.([]LinkField)
	}
	rec, err := New(kind)
	if err != nil {
		return nil
	}
	t := reflect.TypeOf(rec).Elem()
	var out []LinkField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("link")
		if tag == "" {
			continue
		}
		parts := strings.SplitN(tag, ",", 2)
		if len(parts) != 2 || f.Type.Kind() != reflect.String {
			panic(fmt.Sprintf("entity: etiqueta link inválida en %s.%s", t.Name(), f.Name))
		}
		out = append(out, LinkField{
			Field:       jsonName(f),
			ParentKind:  Kind(parts[0]),
			ParentArray: parts[1],
			index:       f.Index,
		})
	}
	linkCache.Store(kind, out)
	return out
}

// RefValue lee el ID referenciado por un campo de enlace.
func RefValue(rec Record, field string) string {
	for _, lf := range LinkFields(rec.Kind()) {
		if lf.Field == field {
			return reflect.ValueOf(rec).Elem().FieldByIndex(lf.index).String()
		}
	}
	return ""
}

// SetRef asigna el ID referenciado por un campo de enlace.
func SetRef(rec Record, field, id string) error {
	for _, lf := range LinkFields(rec.Kind()) {
		if lf.Field == field {
			reflect.ValueOf(rec).Elem().FieldByIndex(lf.index).SetString(id)
			return nil
		}
	}
	return fmt.Errorf("%s no tiene campo de enlace %q", rec.Kind(), field)
}

// ArrayValues lee un arreglo de IDs del registro por su nombre JSON.
func ArrayValues(rec Record, field string) []string {
	v := reflect.ValueOf(rec).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if jsonName(t.Field(i)) == field {
			ids, _ := v.Field(i).Interface().([]string)
			return ids
		}
	}
	return nil
}

func jsonName(f reflect.StructField) string {
	name := strings.Split(f.Tag.Get("json"), ",")[0]
	if name == "" {
		return f.Name
	}
	return name
}
