package plan

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type catalogDocument struct {
	Plans []Plan `yaml:"plans"`
}

// LoadYAML reads a full catalog from a YAML document of the form:
//
//	plans:
//	  - id: basico
//	    name: Básico
//	    price: {monthly: "39.90", quarterly: "113.72", semiannual: "215.46", yearly: "406.98"}
//	    discount_pct: {quarterly: 5, semiannual: 10, yearly: 15}
//	    limits: {max_users: 2, ...}
//
// All four tiers must be present and no price may be negative.
func LoadYAML(r io.Reader) (*Catalog, error) {
	var doc catalogDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrDecodeCatalog)
		}
		return nil, errors.Join(ErrDecodeCatalog, err)
	}

	for i := range doc.Plans {
		if doc.Plans[i].Name == "" {
			doc.Plans[i].Name = string(doc.Plans[i].ID)
		}
	}

	return NewCatalog(doc.Plans...)
}
