package shipping

import (
	"regexp"
	"strings"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/domain"
)

// Country is fixed for every shipment regardless of input.
const Country = "India"

var pinPattern = regexp.MustCompile(`\d{6}`)

// PinPolicy selects how strictly a candidate postal code is validated before
// the default is substituted. The lenient policy (used by the generic
// extractor) accepts anything non-empty; the strict policy (used by the
// manifest path) additionally requires exactly six characters and rejects the
// "000000" sentinel.
type PinPolicy int

const (
	PinPolicyLenient PinPolicy = iota
	PinPolicyStrict
)

// Defaults is the fallback customer profile substituted field-by-field when
// the input leaves something blank.
type Defaults struct {
	Name         string
	AddressLine1 string
	City         string
	State        string
	PinCode      string
	Phone        string
	Email        string
}

// Record is the canonical shipping record: every field is non-empty after
// normalization, with Country always fixed.
type Record struct {
	Name         string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PinCode      string
	Phone        string
	Email        string
	Country      string
}

// UsedDefaultPin reports whether the record fell back to the default postal
// code, which the manifest records as used_defaults.
func (r Record) UsedDefaultPin(def Defaults) bool {
	return r.PinCode == def.PinCode
}

// Normalize turns an arbitrary address/customer payload into a fully
// populated Record. It never fails: every field left blank by the input is
// filled from def, and Country is fixed.
func Normalize(addr domain.AddressInput, cust domain.CustomerInput, def Defaults, policy PinPolicy) Record {
	var line1, line2, city, state, pin, addrName, addrPhone string

	switch {
	case addr.Structured != nil:
		s := addr.Structured
		line1 = s.Line1()
		line2 = s.AddressLine2
		city = s.City
		state = s.State
		pin = s.Pin()
		addrName = s.Name
		addrPhone = s.Phone
	case addr.Freeform != "":
		line1, line2, city, state, pin = parseFreeform(addr.Freeform)
	}

	if policy == PinPolicyStrict && !validStrictPin(pin) {
		pin = ""
	}

	rec := Record{
		Name:         fallback(addrName, def.Name),
		AddressLine1: fallback(line1, def.AddressLine1),
		AddressLine2: line2,
		City:         fallback(city, def.City),
		State:        fallback(state, def.State),
		PinCode:      fallback(pin, def.PinCode),
		Phone:        fallback(addrPhone, def.Phone),
		Country:      Country,
	}

	// Customer details override the address-level name/phone: the manifest is
	// addressed to the paying customer.
	rec.Name = fallback(FullName(cust, def), rec.Name)
	rec.Phone = fallback(cust.Phone, rec.Phone)
	rec.Email = fallback(cust.Email, def.Email)

	return rec
}

// FullName derives "first last" from the customer block, trimming the result
// and defaulting the first name when blank. Last name is optional.
func FullName(cust domain.CustomerInput, def Defaults) string {
	first := fallback(cust.Name, def.Name)
	return strings.TrimSpace(first + " " + cust.LastName)
}

// parseFreeform splits a comma-separated address string positionally: the
// first segment is line 1, the second line 2, the third-from-last the city,
// the second-from-last the state, and the last segment is scanned for a
// six-digit run as the postal code.
func parseFreeform(s string) (line1, line2, city, state, pin string) {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	n := len(parts)
	if n >= 1 {
		line1 = parts[0]
	}
	if n >= 2 {
		line2 = parts[1]
		state = parts[n-2]
	}
	if n >= 3 {
		city = parts[n-3]
	}
	if n >= 1 {
		pin = pinPattern.FindString(parts[n-1])
	}
	return line1, line2, city, state, pin
}

func validStrictPin(pin string) bool {
	return len(pin) == 6 && pin != "000000"
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
