// Package permission define el vocabulario fijo de permisos por propiedad
// que un owner puede otorgar a un asistente. Lo comparten la API y el console.
package permission

import (
	"errors"
	"fmt"
	"strings"
)

type Permission string

const (
	ViewProperty   Permission = "VIEW_PROPERTY"
	ManageRooms    Permission = "MANAGE_ROOMS"
	ManageTenants  Permission = "MANAGE_TENANTS"
	ManagePayments Permission = "MANAGE_PAYMENTS"
	ViewFinancials Permission = "VIEW_FINANCIALS"
	ManageSettings Permission = "MANAGE_SETTINGS"
)

// ErrUnknown se devuelve al parsear un permiso fuera del vocabulario.
var ErrUnknown = errors.New("unknown permission")

// orden canónico; Normalize y All lo respetan
var all = []Permission{
	ViewProperty,
	ManageRooms,
	ManageTenants,
	ManagePayments,
	ViewFinancials,
	ManageSettings,
}

var labels = map[Permission]string{
	ViewProperty:   "View Property Details",
	ManageRooms:    "Manage Floors & Rooms",
	ManageTenants:  "Manage Tenants",
	ManagePayments: "Record & Manage Payments",
	ViewFinancials: "View Financial Reports",
	ManageSettings: "Manage Settings",
}

// All devuelve una copia del vocabulario completo.
func All() []Permission {
	out := make([]Permission, len(all))
	copy(out, all)
	return out
}

func (p Permission) Valid() bool {
	_, ok := labels[p]
	return ok
}

func (p Permission) Label() string {
	if l, ok := labels[p]; ok {
		return l
	}
	return string(p)
}

func Parse(s string) (Permission, error) {
	p := Permission(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	return p, nil
}

// Normalize valida estrictamente, deduplica y ordena en orden canónico.
// Un set vacío es válido (asistente sin permisos sobre la propiedad).
func Normalize(in []Permission) ([]Permission, error) {
	seen := make(map[Permission]struct{}, len(in))
	for _, raw := range in {
		p, err := Parse(string(raw))
		if err != nil {
			return nil, err
		}
		seen[p] = struct{}{}
	}

	out := make([]Permission, 0, len(seen))
	for _, p := range all {
		if _, ok := seen[p]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Has es el chequeo puro sobre una lista de permisos.
func Has(perms []Permission, p Permission) bool {
	for _, have := range perms {
		if have == p {
			return true
		}
	}
	return false
}

// IsFullAccess: caso cosmético "Full Access" (lista con todo el vocabulario).
func IsFullAccess(perms []Permission) bool {
	if len(perms) != len(all) {
		return false
	}
	for _, p := range all {
		if !Has(perms, p) {
			return false
		}
	}
	return true
}

// Summary es la etiqueta corta que usan los listados.
func Summary(perms []Permission) string {
	switch {
	case len(perms) == 0:
		return "No Permissions"
	case IsFullAccess(perms):
		return "Full Access"
	case len(perms) == 1:
		return "1 Permission"
	default:
		return fmt.Sprintf("%d Permissions", len(perms))
	}
}

func Strings(perms []Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}

func FromStrings(in []string) []Permission {
	out := make([]Permission, 0, len(in))
	for _, s := range in {
		out = append(out, Permission(s))
	}
	return out
}
