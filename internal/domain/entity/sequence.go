package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CodeFamily identifies an independent code sequence
type CodeFamily string

// Code families
const (
	FamilyReservation CodeFamily = "RESERVATION"
	FamilyBooking     CodeFamily = "BOOKING"
	FamilyDeposit     CodeFamily = "DEPOSIT"
)

// CodeDigits is the zero-padded width of the numeric part of a code
const CodeDigits = 6

var familyPrefixes = map[CodeFamily]string{
	FamilyReservation: "RS",
	FamilyBooking:     "BK",
	FamilyDeposit:     "DP",
}

// Prefix returns the code prefix of a family
func (f CodeFamily) Prefix() string {
	return familyPrefixes[f]
}

// IsValid checks the family against the known set
func (f CodeFamily) IsValid() bool {
	_, ok := familyPrefixes[f]
	return ok
}

// Sequence is the persisted counter of a code family
type Sequence struct {
	Family    CodeFamily
	Prefix    string
	Current   int64
	UpdatedAt time.Time
}

// FormatCode renders <prefix><n zero-padded>, e.g. RS000007
func FormatCode(family CodeFamily, n int64) string {
	return fmt.Sprintf("%s%0*d", family.Prefix(), CodeDigits, n)
}

// ParseCodeNumber extracts the counter value from a code of the family
func ParseCodeNumber(family CodeFamily, code string) (int64, bool) {
	prefix := family.Prefix()
	if prefix == "" || !strings.HasPrefix(code, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(code, prefix), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
