package pipeline

import "github.com/BurntSushi/toml"

// LoadCatalog reads a variable catalog from a TOML file at path. The
// catalog format is a flat table of `[[variable]]` entries; see
// VariableDef for the recognized keys.
func LoadCatalog(path string) (Catalog, error) {
	var cat Catalog
	if _, err := toml.DecodeFile(path, &cat); err != nil {
		return Catalog{}, &CatalogLoadError{Path: path, Cause: err}
	}
	return cat, nil
}

// DecodeCatalog parses a variable catalog from an in-memory TOML
// document, for callers that already have the bytes (an embedded
// default catalog, a script-supplied string) rather than a file path.
func DecodeCatalog(data string) (Catalog, error) {
	var cat Catalog
	if _, err := toml.Decode(data, &cat); err != nil {
		return Catalog{}, &CatalogLoadError{Path: "<string>", Cause: err}
	}
	return cat, nil
}
