package testutil

import (
	"github.com/google/uuid"
)

// Fixed identifiers for deterministic tests.
var (
	TestTenantID    = uuid.MustParse("00000000-0000-0000-0000-000000000010").String()
	TestLoanID      = uuid.MustParse("00000000-0000-0000-0000-000000000020").String()
	TestMemberID    = uuid.MustParse("00000000-0000-0000-0000-000000000030").String()
	TestCollectorID = uuid.MustParse("00000000-0000-0000-0000-000000000040").String()
)

// NewLoanID returns a fresh loan identifier for tests that need several loans.
func NewLoanID() string { return uuid.NewString() }
