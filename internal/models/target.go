package models

import "strings"

// departmentPrefix marks keyword-index values that point at a department
// rather than a single document, e.g. "Department:icu".
const departmentPrefix = "Department:"

// TargetKind discriminates what a keyword resolves to.
type TargetKind int

const (
	// TargetDocument points at a single knowledge document by id.
	TargetDocument TargetKind = iota
	// TargetDepartment points at a department listing by code.
	TargetDepartment
)

// TargetRef is the decoded value of one keyword-index entry.
type TargetRef struct {
	Kind TargetKind
	// DocumentID is set when Kind is TargetDocument.
	DocumentID string
	// Department is set when Kind is TargetDepartment.
	Department string
}

// ParseTarget decodes a raw keyword-index value into a TargetRef.
// Values shaped "Department:<code>" are department refs; everything else
// is treated as a document id.
func ParseTarget(raw string) TargetRef {
	if code, ok := strings.CutPrefix(raw, departmentPrefix); ok {
		return TargetRef{Kind: TargetDepartment, Department: code}
	}
	return TargetRef{Kind: TargetDocument, DocumentID: raw}
}

// Encode returns the wire form of the target, the inverse of ParseTarget.
func (t TargetRef) Encode() string {
	if t.Kind == TargetDepartment {
		return departmentPrefix + t.Department
	}
	return t.DocumentID
}
