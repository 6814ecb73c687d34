package entity

// Locality es un nodo de la jerarquía territorial identificado por su ubigeo (INEI, 6 dígitos).
type Locality struct {
	Meta
	Ubigeo     string `json:"ubigeo"`
	Department string `json:"department"`
	Province   string `json:"province"`
	District   string `json:"district"`
}

func (l *Locality) Kind() Kind         { return KindLocality }
func (l *Locality) NaturalKey() string { return l.Ubigeo }

// DisplayName es el nombre usado en las referencias de ruta.
func (l *Locality) DisplayName() string {
	if l.District != "" {
		return l.District
	}
	if l.Province != "" {
		return l.Province
	}
	return l.Department
}
