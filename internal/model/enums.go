package model

import "fmt"

// ServiceType is the kind of escort service booked.
type ServiceType string

const (
	ServiceFullCare     ServiceType = "full_care"
	ServiceHospitalCare ServiceType = "hospital_care"
	ServiceSpecialCare  ServiceType = "special_care"
)

// ServiceTypes lists the bookable service types.
var ServiceTypes = []ServiceType{ServiceFullCare, ServiceHospitalCare, ServiceSpecialCare}

func (t ServiceType) IsValid() bool {
	switch t {
	case ServiceFullCare, ServiceHospitalCare, ServiceSpecialCare:
		return true
	}
	return false
}

// Label returns the customer-facing name of the service.
func (t ServiceType) Label() string {
	switch t {
	case ServiceFullCare:
		return "풀케어"
	case ServiceHospitalCare:
		return "병원 동행"
	case ServiceSpecialCare:
		return "특화 케어"
	}
	return string(t)
}

// ParseServiceType validates a service type tag.
func ParseServiceType(s string) (ServiceType, error) {
	t := ServiceType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid service type: %q", s)
	}
	return t, nil
}

// ManagerStatus is the account state of a manager.
type ManagerStatus string

const (
	ManagerPending   ManagerStatus = "pending"
	ManagerActive    ManagerStatus = "active"
	ManagerInactive  ManagerStatus = "inactive"
	ManagerSuspended ManagerStatus = "suspended"
)

func (s ManagerStatus) IsValid() bool {
	switch s {
	case ManagerPending, ManagerActive, ManagerInactive, ManagerSuspended:
		return true
	}
	return false
}

// ParseManagerStatus validates a manager status tag.
func ParseManagerStatus(s string) (ManagerStatus, error) {
	st := ManagerStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid manager status: %q", s)
	}
	return st, nil
}

// Grade is a manager tier. It selects the platform fee rate.
type Grade string

const (
	GradeNew     Grade = "new"
	GradeRegular Grade = "regular"
	GradePremium Grade = "premium"
)

func (g Grade) IsValid() bool {
	switch g {
	case GradeNew, GradeRegular, GradePremium:
		return true
	}
	return false
}

// Role is the kind of principal acting on the system.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// ParseRole validates a role tag.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}
