package identity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stluc/hms/internal/store"
)

// categoryPrefixes is the precedence order used when a bare number is
// searched: "1" finds PA0001 before PED0001, URG0001 and URG-PED0001.
var categoryPrefixes = []string{"PA", "PED", "URG", "URG-PED"}

var prefixedID = regexp.MustCompile(`^(URG-PED|PED|URG|PA)(\d+)$`)

// Resolve finds the patient designated by a free-form search string. In
// order it tries an exact identifier, a bare number under each category
// prefix, an unpadded identifier, and finally a name or phone substring for
// non-numeric queries longer than two characters. It returns nil when
// nothing matches.
func Resolve(patients []*store.Patient, query string) *store.Patient {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	if p := byID(patients, q); p != nil {
		return p
	}

	numeric := isDigits(q)
	if numeric {
		n, err := strconv.Atoi(q)
		if err != nil {
			return nil
		}
		for _, prefix := range categoryPrefixes {
			if p := byID(patients, canonical(prefix, n)); p != nil {
				return p
			}
		}
		return nil
	}

	if m := prefixedID.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil {
			if p := byID(patients, canonical(m[1], n)); p != nil {
				return p
			}
		}
	}

	if len([]rune(q)) <= 2 {
		return nil
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, p := range patients {
		if strings.Contains(strings.ToLower(p.Name), needle) || (p.Phone != "" && strings.Contains(strings.ToLower(p.Phone), needle)) {
			return p
		}
	}
	return nil
}

// Lookup resolves query inside a store transaction.
func Lookup(tx *store.Tx, query string) (*store.Patient, error) {
	p := Resolve(tx.Patients(), query)
	if p == nil {
		return nil, fmt.Errorf("%w: patient %q", store.ErrNotFound, strings.TrimSpace(query))
	}
	return p, nil
}

// Search returns every patient whose identifier, name or phone contains
// query. An empty query returns everyone.
func Search(patients []*store.Patient, query string) []*store.Patient {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]*store.Patient, 0, len(patients))
	for _, p := range patients {
		if needle == "" ||
			strings.Contains(strings.ToLower(p.ID), needle) ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Phone), needle) {
			out = append(out, p)
		}
	}
	return out
}

func canonical(prefix string, n int) string {
	return fmt.Sprintf("%s%04d", prefix, n)
}

func byID(patients []*store.Patient, id string) *store.Patient {
	for _, p := range patients {
		if strings.EqualFold(p.ID, id) {
			return p
		}
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
