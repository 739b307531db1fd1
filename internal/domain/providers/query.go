package providers

import (
	"fmt"

	"cloud.google.com/go/firestore"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

var sortFields = map[string]string{
	"":           "createdAt",
	"createdAt":  "createdAt",
	"rating":     "rating",
	"totalCalls": "totalCalls",
	"lastName":   "lastName",
}

// Clause is one Firestore where clause.
type Clause struct {
	Field string
	Op    string
	Value interface{}
}

// QueryPlan is the Firestore query for a ListFilter, independent of a client.
type QueryPlan struct {
	Clauses    []Clause
	OrderField string
	Desc       bool
	Limit      int
	Cursor     string
}

// PlanQuery validates f and turns it into where/orderBy/limit clauses. The
// free-text Search is not part of the plan; it is applied to fetched rows.
func PlanQuery(f ListFilter) (QueryPlan, error) {
	f.Trim()
	var p QueryPlan

	if f.Type != "" {
		if !contains(ValidTypes, f.Type) {
			return p, fmt.Errorf("%w: unknown type %q", ErrBadRequest, f.Type)
		}
		p.Clauses = append(p.Clauses, Clause{"type", "==", f.Type})
	}
	if f.Status != "" && f.Status != "all" {
		if !contains(ValidStatuses, f.Status) {
			return p, fmt.Errorf("%w: unknown status %q", ErrBadRequest, f.Status)
		}
		p.Clauses = append(p.Clauses, Clause{"status", "==", f.Status})
	}
	if f.Country != "" {
		p.Clauses = append(p.Clauses, Clause{"country", "==", f.Country})
	}
	if f.Language != "" {
		p.Clauses = append(p.Clauses, Clause{"languages", "array-contains", f.Language})
	}
	if f.KYCStatus != "" {
		if !contains(ValidKYCStates, f.KYCStatus) {
			return p, fmt.Errorf("%w: unknown kycStatus %q", ErrBadRequest, f.KYCStatus)
		}
		p.Clauses = append(p.Clauses, Clause{"kycStatus", "==", f.KYCStatus})
	}
	if f.Online != nil {
		p.Clauses = append(p.Clauses, Clause{"isOnline", "==", *f.Online})
	}

	field, ok := sortFields[f.SortBy]
	if !ok {
		return p, fmt.Errorf("%w: cannot sort by %q", ErrBadRequest, f.SortBy)
	}
	p.OrderField = field
	switch f.SortDir {
	case "", "desc":
		// lastName reads naturally ascending
		p.Desc = f.SortDir == "desc" || field != "lastName"
	case "asc":
		p.Desc = false
	default:
		return p, fmt.Errorf("%w: sortDir must be 'asc' or 'desc'", ErrBadRequest)
	}

	p.Limit = f.Limit
	if p.Limit <= 0 {
		p.Limit = defaultListLimit
	}
	if p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}
	p.Cursor = f.Cursor
	return p, nil
}

// Apply builds the Firestore query on base. The cursor snapshot, when
// present, must come from the same collection.
func (p QueryPlan) Apply(base firestore.Query, cursor *firestore.DocumentSnapshot, limit int) firestore.Query {
	q := base
	for _, c := range p.Clauses {
		q = q.Where(c.Field, c.Op, c.Value)
	}
	dir := firestore.Asc
	if p.Desc {
		dir = firestore.Desc
	}
	q = q.OrderBy(p.OrderField, dir)
	if cursor != nil {
		q = q.StartAfter(cursor)
	}
	return q.Limit(limit)
}
