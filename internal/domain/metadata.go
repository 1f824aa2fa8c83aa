package domain

import "encoding/json"

// MetadataRecord is the decoded on-chain Metaplex metadata account of a mint.
type MetadataRecord struct {
	Address         string // metadata PDA
	Mint            string
	UpdateAuthority string
	Name            string
	Symbol          string
	URI             string // off-chain JSON document
}

// Attribute is one entry of the off-chain document attributes array.
// Value is kept as decoded JSON: a string, a number or a bool.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Document is the off-chain JSON document referenced by MetadataRecord.URI.
type Document struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// HasTrait reports whether any attribute has exactly the given trait type.
func (d *Document) HasTrait(traitType string) bool {
	if d == nil {
		return false
	}
	for _, attr := range d.Attributes {
		if attr.TraitType == traitType {
			return true
		}
	}
	return false
}

// UnmarshalJSON decodes a document leniently. Top-level fields of the wrong
// type are left empty and attributes without a string trait_type are skipped,
// so one bad entry does not hide the others.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        json.RawMessage `json:"name"`
		Symbol      json.RawMessage `json:"symbol"`
		Description json.RawMessage `json:"description"`
		Image       json.RawMessage `json:"image"`
		Attributes  json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Document{
		Name:        stringField(raw.Name),
		Symbol:      stringField(raw.Symbol),
		Description: stringField(raw.Description),
		Image:       stringField(raw.Image),
	}

	var entries []json.RawMessage
	if json.Unmarshal(raw.Attributes, &entries) != nil {
		return nil
	}
	for _, entry := range entries {
		var attr struct {
			TraitType json.RawMessage `json:"trait_type"`
			Value     any             `json:"value"`
		}
		if json.Unmarshal(entry, &attr) != nil {
			continue
		}
		var traitType string
		if json.Unmarshal(attr.TraitType, &traitType) != nil {
			continue
		}
		d.Attributes = append(d.Attributes, Attribute{TraitType: traitType, Value: attr.Value})
	}
	return nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
