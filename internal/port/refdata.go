package port

import "clarabill/internal/domain"

// CodeDictionary resolves a service code to its reference entry.
type CodeDictionary interface {
	Lookup(code string) (*domain.CodeEntry, bool)
}

// Glossary resolves billing terms to short plain-language definitions.
type Glossary interface {
	Lookup(term string) (string, bool)
}
