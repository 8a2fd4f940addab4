package domain

// Kind is the semantic kind of a value the dialogue expects from the user.
type Kind string

const (
	KindGeneric Kind = "generic"
	KindDate    Kind = "date"
	KindEmail   Kind = "email"
	KindPhone   Kind = "phone"
	KindName    Kind = "name"
	KindAddress Kind = "address"
	KindNumber  Kind = "number"
	KindIntent  Kind = "intent"

	// Date components, usually inferred for the subs of a date item.
	KindDay   Kind = "day"
	KindMonth Kind = "month"
	KindYear  Kind = "year"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindGeneric, KindDate, KindEmail, KindPhone, KindName, KindAddress,
		KindNumber, KindIntent, KindDay, KindMonth, KindYear:
		return true
	}
	return false
}
