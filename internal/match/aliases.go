package match

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// AliasTable maps normalized spelling variants to a canonical display
// name. It replaces the inline conditional chains the import sheets used
// to need: new variants are data, not code.
type AliasTable struct {
	aliases map[string]string
}

// NewAliasTable builds a table from an alias -> canonical map. Keys are
// normalized on the way in.
func NewAliasTable(aliases map[string]string) *AliasTable {
	t := &AliasTable{aliases: make(map[string]string, len(aliases))}
	for alias, canonical := range aliases {
		t.aliases[Normalize(alias)] = canonical
	}
	return t
}

// LoadAliasFile reads a YAML alias table, a flat mapping of
// "alias: canonical" entries.
func LoadAliasFile(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "match: read alias file %s", path)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "match: parse alias file %s", path)
	}
	return NewAliasTable(raw), nil
}

// Canonical resolves a raw name through the alias table. Unknown names
// come back normalized but otherwise untouched.
func (t *AliasTable) Canonical(name string) string {
	n := Normalize(name)
	if t != nil {
		if canonical, ok := t.aliases[n]; ok {
			return canonical
		}
	}
	return n
}

// Len returns the number of alias entries.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.aliases)
}

// DefaultCityAliases covers the spelling variants that show up most in
// vendor spreadsheets for the largest Colombian markets.
func DefaultCityAliases() *AliasTable {
	return NewAliasTable(map[string]string{
		"BOGOTA":              "BOGOTA DC",
		"BOGOTÁ":              "BOGOTA DC",
		"BOGOTA D.C.":         "BOGOTA DC",
		"SANTAFE DE BOGOTA":   "BOGOTA DC",
		"MEDELLÍN":            "MEDELLIN",
		"CALI VALLE":          "CALI",
		"SANTIAGO DE CALI":    "CALI",
		"B/QUILLA":            "BARRANQUILLA",
		"BQUILLA":             "BARRANQUILLA",
		"CARTAGENA DE INDIAS": "CARTAGENA",
		"B/MANGA":             "BUCARAMANGA",
		"CUCUTA":              "CUCUTA",
		"SAN JOSE DE CUCUTA":  "CUCUTA",
	})
}
