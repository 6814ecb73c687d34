package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestParseUbigeos_AtributosEHijos(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<ubigeos>
  <ubigeo codigo="020201" departamento="Áncash" provincia="Aija" distrito="Aija"/>
  <ubigeo>
    <codigo>020101</codigo><departamento>ÁNCASH</departamento><provincia>HUARAZ</provincia><distrito>HUARAZ</distrito>
  </ubigeo>
  <ubigeo codigo="0201" departamento="X"/>
  <ubigeo codigo="020101" departamento="ÁNCASH" provincia="HUARAZ" distrito="OTRO"/>
</ubigeos>`

	locs, skipped, err := parseUbigeos(strings.NewReader(xml))
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "020101", locs[0].Ubigeo, "ordenadas por código")
	assert.Equal(t, "HUARAZ", locs[0].District)
	assert.Equal(t, "ÁNCASH", locs[1].Department)
	assert.Equal(t, "AIJA", locs[1].DisplayName())
	assert.Len(t, skipped, 2)
}

func TestParseUbigeos_Latin1(t *testing.T) {
	src := `<?xml version="1.0" encoding="ISO-8859-1"?><ubigeos><ubigeo codigo="150101" departamento="LIMA" provincia="LIMA" distrito="CERCADO DE LIMA ÑAÑA"/></ubigeos>`
	encoded, err := charmap.ISO8859_1.NewEncoder().String(src)
	require.NoError(t, err)

	locs, _, err := parseUbigeos(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "CERCADO DE LIMA ÑAÑA", locs[0].District)
}

func TestWriteSQL_UpsertPorLocalidad(t *testing.T) {
	locs, _, err := parseUbigeos(strings.NewReader(`<ubigeos><ubigeo codigo="020101" departamento="ÁNCASH" provincia="HUARAZ" distrito="O'HIGGINS"/></ubigeos>`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSQL(&buf, locs, func() string { return "00000000-0000-0000-0000-000000000001" }))
	sql := buf.String()

	assert.Contains(t, sql, "VALUES ('00000000-0000-0000-0000-000000000001', 'localidad', '020101'")
	assert.Contains(t, sql, `"district":"O''HIGGINS"`)
	assert.Contains(t, sql, "ON CONFLICT (kind, natural_key) WHERE active")
	assert.NotContains(t, sql, `"created_at"`)
}
