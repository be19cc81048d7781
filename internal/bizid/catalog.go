package bizid

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	EntityEmployee = "employee"
	EntityItem     = "item"
	EntityPayroll  = "payroll"
)

type Catalog map[string]Scheme

func DefaultCatalog() Catalog {
	return Catalog{
		EntityEmployee: {Prefix: "MSB", WithYear: true, Width: 4},
		EntityItem:     {Prefix: "MSBI", Width: 4},
		EntityPayroll:  {Prefix: "PAY", WithYear: true, Width: 4},
	}
}

type catalogFile struct {
	Schemes map[string]Scheme `yaml:"schemes"`
}

// LoadCatalog reads scheme overrides from a YAML file. A missing file is
// not an error: the defaults are returned as-is.
func LoadCatalog(path string) (Catalog, error) {
	cat := DefaultCatalog()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cat, nil
		}
		return nil, fmt.Errorf("read id schemes: %w", err)
	}

	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (Catalog, error) {
	cat := DefaultCatalog()

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse id schemes: %w", err)
	}

	for entity, s := range f.Schemes {
		if s.Prefix == "" {
			return nil, fmt.Errorf("id scheme %q: prefix is required", entity)
		}
		cat[entity] = s
	}

	return cat, nil
}

func (c Catalog) Scheme(entity string) (Scheme, error) {
	s, ok := c[entity]
	if !ok {
		return Scheme{}, fmt.Errorf("no id scheme for %q", entity)
	}
	return s, nil
}
