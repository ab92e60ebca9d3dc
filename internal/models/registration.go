package models

import (
	"time"
)

// Registration is one webinar sign-up. Records are append-only.
type Registration struct {
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	OrgType   string    `json:"orgType"`
	OrgName   string    `json:"orgName"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	MoreInfo  bool      `json:"moreInfo"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegistrationFields lists the exported column names in wire order (CSV header, SQL columns).
var RegistrationFields = []string{
	"firstName", "lastName", "orgType", "orgName", "role", "email", "phone", "moreInfo", "createdAt",
}
