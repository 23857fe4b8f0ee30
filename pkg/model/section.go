package model

import "strings"

// SectionRecord is one row of the section-header dump.
type SectionRecord struct {
	Index      int      `json:"index"`
	Name       string   `json:"name"`
	Size       int64    `json:"size"`
	VMA        uint64   `json:"vma"`
	LMA        uint64   `json:"lma"`
	FileOffset uint64   `json:"fileOffset"`
	Alignment  string   `json:"alignment,omitempty"`
	Flags      []string `json:"flags,omitempty"`
}

// HasFlag reports whether the section carries the given objdump flag, e.g. "ALLOC".
func (s *SectionRecord) HasFlag(flag string) bool {
	for _, f := range s.Flags {
		if strings.EqualFold(f, flag) {
			return true
		}
	}
	return false
}

// OccupiesFile reports whether the section has bytes in the file image.
// Sections without CONTENTS (such as .bss) only reserve memory.
func (s *SectionRecord) OccupiesFile() bool {
	if len(s.Flags) == 0 {
		return true
	}
	return s.HasFlag("CONTENTS")
}
