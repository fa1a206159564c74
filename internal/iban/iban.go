// Package iban validates International Bank Account Numbers and decides
// for which destination countries an IBAN is mandatory.
package iban

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/biter777/countries"
)

// mandatoryCountries holds the uppercase names of countries whose banking
// systems require an IBAN for inbound transfers.
var mandatoryCountries = map[string]struct{}{
	"ALBANIA": {}, "ANDORRA": {}, "AUSTRIA": {}, "AZERBAIJAN": {},
	"BAHRAIN": {}, "BELGIUM": {}, "BOSNIA AND HERZEGOVINA": {},
	"BULGARIA": {}, "CROATIA": {}, "CYPRUS": {}, "CZECH REPUBLIC": {},
	"DENMARK": {}, "ESTONIA": {}, "FAROE ISLANDS": {}, "FINLAND": {},
	"FRANCE": {}, "GEORGIA": {}, "GERMANY": {}, "GIBRALTAR": {},
	"GREECE": {}, "GREENLAND": {}, "HUNGARY": {}, "ICELAND": {},
	"IRELAND": {}, "ISRAEL": {}, "ITALY": {}, "JORDAN": {},
	"KAZAKHSTAN": {}, "KUWAIT": {}, "LATVIA": {}, "LEBANON": {},
	"LIECHTENSTEIN": {}, "LITHUANIA": {}, "LUXEMBOURG": {}, "MALTA": {},
	"MAURITANIA": {}, "MAURITIUS": {}, "MONACO": {}, "MONTENEGRO": {},
	"NETHERLANDS": {}, "NORTH MACEDONIA": {}, "NORWAY": {}, "PAKISTAN": {},
	"PALESTINE": {}, "POLAND": {}, "PORTUGAL": {}, "QATAR": {},
	"ROMANIA": {}, "SAINT LUCIA": {}, "SAN MARINO": {}, "SAUDI ARABIA": {},
	"SERBIA": {}, "SEYCHELLES": {}, "SLOVAKIA": {}, "SLOVENIA": {},
	"SPAIN": {}, "SWEDEN": {}, "SWITZERLAND": {}, "TIMOR-LESTE": {},
	"TURKEY": {}, "UKRAINE": {}, "UNITED ARAB EMIRATES": {},
	"UNITED KINGDOM": {}, "VATICAN CITY STATE": {},
}

// ibanLengths maps an ISO 3166-1 alpha-2 country code to the registered
// IBAN length for that country.
var ibanLengths = map[string]int{
	"AL": 28, "AD": 24, "AT": 20, "AZ": 28, "BH": 22, "BE": 16, "BA": 20, "BG": 22,
	"HR": 21, "CY": 28, "CZ": 24, "DK": 18, "EE": 20, "FO": 18, "FI": 18, "FR": 27,
	"GE": 22, "DE": 22, "GI": 23, "GR": 27, "GL": 18, "HU": 28, "IS": 26, "IE": 22,
	"IL": 23, "IT": 27, "JO": 30, "KZ": 20, "KW": 30, "LV": 21, "LB": 28, "LI": 21,
	"LT": 20, "LU": 20, "MT": 31, "MR": 27, "MU": 30, "MC": 27, "ME": 22, "NL": 18,
	"MK": 19, "NO": 15, "PK": 24, "PS": 29, "PL": 28, "PT": 25, "QA": 29, "RO": 24,
	"LC": 32, "SM": 27, "SA": 24, "RS": 22, "SC": 31, "SK": 24, "SI": 19, "ES": 24,
	"SE": 24, "CH": 21, "TL": 23, "TR": 26, "UA": 29, "AE": 23, "GB": 22, "VA": 22,
}

// shapePattern is the minimal structural check applied before any lookup:
// two letters of country code followed by at least two alphanumerics.
var shapePattern = regexp.MustCompile(`^[A-Z]{2}[0-9A-Z]{2,}$`)

// RequiresIBAN reports whether transfers to the given country must carry
// an IBAN. The country may arrive as a full name, an alpha-2 or alpha-3
// code, or a common variant spelling; anything resolvable to an
// IBAN-registry country counts.
func RequiresIBAN(country string) bool {
	name := strings.ToUpper(strings.TrimSpace(country))
	if name == "" {
		return false
	}
	if _, ok := mandatoryCountries[name]; ok {
		return true
	}

	code := countries.ByName(country)
	if code == countries.Unknown {
		return false
	}
	_, ok := ibanLengths[code.Alpha2()]
	return ok
}

// Clean removes all whitespace from an IBAN and uppercases it.
func Clean(iban string) string {
	return strings.ToUpper(strings.Join(strings.Fields(iban), ""))
}

// Validate checks an IBAN for structural validity and a correct mod-97
// checksum. It returns whether the IBAN is valid together with a
// human-readable verdict naming the first rule that failed.
func Validate(iban string) (bool, string) {
	if iban == "" {
		return false, "IBAN is empty"
	}

	iban = Clean(iban)

	if !shapePattern.MatchString(iban) {
		return false, "IBAN format is invalid (must start with country code)"
	}

	countryCode := iban[:2]
	expectedLength, ok := ibanLengths[countryCode]
	if !ok {
		return false, fmt.Sprintf("Unknown country code: %s", countryCode)
	}
	if len(iban) != expectedLength {
		return false, fmt.Sprintf("IBAN length incorrect. Expected %d characters, got %d",
			expectedLength, len(iban))
	}

	if mod97(iban[4:]+iban[:4]) != 1 {
		return false, "IBAN checksum is invalid"
	}

	return true, "IBAN is valid"
}

// mod97 computes the ISO 7064 mod-97 remainder of the rearranged IBAN,
// expanding letters to their two-digit values (A=10 .. Z=35) on the fly
// so arbitrarily long IBANs never overflow.
func mod97(s string) int {
	remainder := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			remainder = (remainder*10 + int(r-'0')) % 97
		} else {
			remainder = (remainder*100 + int(r-'A') + 10) % 97
		}
	}
	return remainder
}
