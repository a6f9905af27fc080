package session

import (
	"fmt"

	"github.com/meridies/eventbid/internal/model"
)

// Update is one explicit change to a bid.
type Update func(*model.BidRecord) error

// SetIdentity replaces the identity and scheduling fields.
func SetIdentity(id model.Identity) Update {
	return func(b *model.BidRecord) error {
		b.Identity = id
		return nil
	}
}

// SetFacility replaces the site description.
func SetFacility(f model.Facility) Update {
	return func(b *model.BidRecord) error {
		b.Facility = f
		return nil
	}
}

// SetPricing replaces every price, cost and capacity.
func SetPricing(p model.Pricing) Update {
	return func(b *model.BidRecord) error {
		b.Pricing = p
		return nil
	}
}

// SetStaff replaces the staff list. Roles must be named.
func SetStaff(staff []model.StaffRole) Update {
	return func(b *model.BidRecord) error {
		for i, r := range staff {
			if r.Role == "" {
				return fmt.Errorf("staff entry %d has no role", i+1)
			}
		}
		b.Staff = append([]model.StaffRole(nil), staff...)
		return nil
	}
}

// PutExpense adds or replaces a ledger line.
func PutExpense(name string, e model.Expense) Update {
	return func(b *model.BidRecord) error {
		return b.Expenses.Put(name, e)
	}
}

// RemoveExpense deletes a ledger line. Removing a missing line is an error.
func RemoveExpense(name string) Update {
	return func(b *model.BidRecord) error {
		if !b.Expenses.Remove(name) {
			return fmt.Errorf("no expense named %q", name)
		}
		return nil
	}
}

// ApplyProfile merges a site profile onto the bid.
func ApplyProfile(p model.SiteProfile) Update {
	return func(b *model.BidRecord) error {
		*b = model.ApplyProfile(*b, p)
		return nil
	}
}

// SetField assigns one field by its persisted JSON name.
func SetField(key, value string) Update {
	return func(b *model.BidRecord) error {
		return model.SetField(b, key, value)
	}
}
