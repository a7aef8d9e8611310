package domain

import "encoding/json"

// SourceDescriptor is one configured job source, owned by the operator.
// Config is opaque here; each fetcher decodes the shape it expects
// (boardToken for Greenhouse, jobBoardName for Ashby, companyIdentifier
// for Lever). The core reads descriptors at orchestration start and never
// mutates them.
type SourceDescriptor struct {
	ID        int64
	Kind      SourceKind
	Name      string
	CompanyID *int64
	Config    json.RawMessage
	Enabled   bool
}
