// Package model defines the records produced by the dump parsers and
// consumed by the treemap builder.
package model

// SymbolType is the one-letter symbol class printed by nm.
type SymbolType rune

// Symbol classes relevant to size accounting.
const (
	SymbolTypeText          SymbolType = 'T'
	SymbolTypeTextLocal     SymbolType = 't'
	SymbolTypeData          SymbolType = 'D'
	SymbolTypeDataLocal     SymbolType = 'd'
	SymbolTypeBSS           SymbolType = 'B'
	SymbolTypeBSSLocal      SymbolType = 'b'
	SymbolTypeReadOnly      SymbolType = 'R'
	SymbolTypeReadOnlyLocal SymbolType = 'r'
	SymbolTypeUndefined     SymbolType = 'U'
	SymbolTypeCommon        SymbolType = 'C'
	SymbolTypeWeak          SymbolType = 'W'
	SymbolTypeWeakLocal     SymbolType = 'w'
	SymbolTypeWeakObject    SymbolType = 'V'
	SymbolTypeWeakObjLocal  SymbolType = 'v'
	SymbolTypeUnique        SymbolType = 'u'
	SymbolTypeIndirect      SymbolType = 'i'
)

// IsBSS reports whether the symbol lives in zero-initialized storage.
func (t SymbolType) IsBSS() bool {
	return t == SymbolTypeBSS || t == SymbolTypeBSSLocal
}

// IsWeak reports whether the symbol is a weak definition or reference.
func (t SymbolType) IsWeak() bool {
	switch t {
	case SymbolTypeWeak, SymbolTypeWeakLocal, SymbolTypeWeakObject, SymbolTypeWeakObjLocal:
		return true
	}
	return false
}

// Section returns a coarse section label for the symbol class.
func (t SymbolType) Section() string {
	switch t {
	case SymbolTypeText, SymbolTypeTextLocal, SymbolTypeIndirect:
		return ".text"
	case SymbolTypeData, SymbolTypeDataLocal:
		return ".data"
	case SymbolTypeBSS, SymbolTypeBSSLocal, SymbolTypeCommon:
		return ".bss"
	case SymbolTypeReadOnly, SymbolTypeReadOnlyLocal:
		return ".rodata"
	case SymbolTypeUndefined:
		return "*UND*"
	}
	return ""
}

// String returns the nm letter.
func (t SymbolType) String() string {
	return string(rune(t))
}

// SourceLocation is the defining file and line reported by nm -l.
type SourceLocation struct {
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
}

// SymbolRecord is one defined symbol from the symbol-table dump.
type SymbolRecord struct {
	// Name is the demangled name as printed by the tool.
	Name string `json:"name"`

	// Size in bytes. Zero when the tool printed no size or an unparseable one.
	Size int64 `json:"size"`

	// SizeKnown is false when Size was defaulted to zero.
	SizeKnown bool `json:"sizeKnown"`

	Address    uint64          `json:"address"`
	HasAddress bool            `json:"hasAddress"`
	Type       SymbolType      `json:"type"`
	Section    string          `json:"section,omitempty"`
	Location   *SourceLocation `json:"location,omitempty"`
}

// IsExternal reports whether the record references a symbol defined elsewhere.
func (r *SymbolRecord) IsExternal() bool {
	if r.Type == SymbolTypeUndefined {
		return true
	}
	return r.Type.IsWeak() && !r.HasAddress
}
