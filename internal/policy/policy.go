// Package policy decides whether an actor may perform an operation on a kind
// of resource. Decisions are pure: callers supply the owner of the target and
// get back a verdict without any I/O.
package policy

import (
	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
)

type Kind string

const (
	KindUser         Kind = "user"
	KindDriver       Kind = "driver"
	KindVehicle      Kind = "vehicle"
	KindJob          Kind = "job"
	KindFuel         Kind = "fuel"
	KindNotification Kind = "notification"
	KindDashboard    Kind = "dashboard"
)

type Op string

const (
	OpList   Op = "list"
	OpRead   Op = "read"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Decision int

const (
	Deny Decision = iota
	Allow
	// AllowOwn grants a listing whose results must be narrowed to records
	// owned by the actor.
	AllowOwn
)

// Actor is the resolved caller of a request.
type Actor struct {
	ID   string
	Role models.Role
}

// Target describes what is being accessed. OwnerID is the user that owns or
// is assigned to the record: the user itself, the driver's user, the user of
// the driver assigned to a job or vehicle, the recipient of a notification.
// It is empty for listings and creates.
type Target struct {
	Kind    Kind
	Op      Op
	OwnerID string
}

type rule func(a Actor, t Target) Decision

func allow(Actor, Target) Decision { return Allow }
func own(Actor, Target) Decision   { return AllowOwn }

func self(a Actor, t Target) Decision {
	if t.OwnerID != "" && t.OwnerID == a.ID {
		return Allow
	}
	return Deny
}

var dispatcherRules = map[Kind]map[Op]rule{
	KindUser:         {OpList: allow, OpRead: allow, OpUpdate: self},
	KindDriver:       {OpList: allow, OpRead: allow, OpCreate: allow, OpUpdate: allow},
	KindVehicle:      {OpList: allow, OpRead: allow, OpCreate: allow, OpUpdate: allow},
	KindJob:          {OpList: allow, OpRead: allow, OpCreate: allow, OpUpdate: allow},
	KindFuel:         {OpList: allow, OpRead: allow, OpCreate: allow},
	KindNotification: {OpList: own, OpRead: self, OpUpdate: self},
	KindDashboard:    {OpRead: allow},
}

var driverRules = map[Kind]map[Op]rule{
	KindUser:         {OpRead: self, OpUpdate: self},
	KindDriver:       {OpList: own, OpRead: self, OpUpdate: self},
	KindVehicle:      {OpRead: self},
	KindJob:          {OpList: own, OpRead: self, OpUpdate: self},
	KindFuel:         {OpList: own, OpRead: self, OpCreate: self},
	KindNotification: {OpList: own, OpRead: self, OpUpdate: self},
}

// Decide returns the verdict for a acting on t. Unknown roles, kinds and
// operations are denied.
func Decide(a Actor, t Target) Decision {
	var rules map[Kind]map[Op]rule
	switch a.Role {
	case models.RoleAdmin:
		return Allow
	case models.RoleDispatcher:
		rules = dispatcherRules
	case models.RoleDriver:
		rules = driverRules
	default:
		return Deny
	}
	r, ok := rules[t.Kind][t.Op]
	if !ok {
		return Deny
	}
	return r(a, t)
}

// Check is Decide reported as an error.
func Check(a Actor, t Target) error {
	if Decide(a, t) == Deny {
		return apperr.NewForbidden("Insufficient permissions")
	}
	return nil
}

// CanChangeRole reports whether a may change the role of any user, itself included.
func CanChangeRole(a Actor) bool {
	return a.Role == models.RoleAdmin
}

// IsDispatch reports whether a manages the fleet rather than drives in it.
func IsDispatch(a Actor) bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleDispatcher
}
