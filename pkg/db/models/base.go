package models

import "github.com/google/uuid"

// assignID gives rows a client-side uuid so inserts behave the same on every dialect.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&User{},
		&SellerOrg{},
		&Membership{},
		&Invite{},
		&Warehouse{},
		&Product{},
		&ProductVariant{},
		&DiscountCode{},
		&Order{},
		&OrderItem{},
	}
}
