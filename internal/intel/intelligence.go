package intel

import "sort"

// Intelligence holds deduplicated findings extracted from sender messages.
// Fields are sorted string sets with append-only union semantics: once an
// item is recorded for a conversation it is never removed.
type Intelligence struct {
	BankAccounts       []string `json:"bankAccounts"`
	IFSCCodes          []string `json:"ifscCodes"`
	UPIIDs             []string `json:"upiIds"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	PhishingLinks      []string `json:"phishingLinks"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// Count returns the total number of recorded items across all sets.
func (i Intelligence) Count() int {
	return len(i.BankAccounts) + len(i.IFSCCodes) + len(i.UPIIDs) +
		len(i.PhoneNumbers) + len(i.PhishingLinks) + len(i.SuspiciousKeywords)
}

// ActionableCount counts items excluding bare keyword matches. Keywords alone
// never satisfy the completion threshold; structured identifiers do.
func (i Intelligence) ActionableCount() int {
	return len(i.BankAccounts) + len(i.IFSCCodes) + len(i.UPIIDs) +
		len(i.PhoneNumbers) + len(i.PhishingLinks)
}

// HasCritical reports whether any financial, contact, or link identifier has
// been captured.
func (i Intelligence) HasCritical() bool {
	return i.ActionableCount() > 0
}

// Merge unions other into a copy of i. Both inputs are left untouched; the
// result is sorted and deduplicated, so merging is idempotent and monotonic.
func (i Intelligence) Merge(other Intelligence) Intelligence {
	return Intelligence{
		BankAccounts:       unionSorted(i.BankAccounts, other.BankAccounts),
		IFSCCodes:          unionSorted(i.IFSCCodes, other.IFSCCodes),
		UPIIDs:             unionSorted(i.UPIIDs, other.UPIIDs),
		PhoneNumbers:       unionSorted(i.PhoneNumbers, other.PhoneNumbers),
		PhishingLinks:      unionSorted(i.PhishingLinks, other.PhishingLinks),
		SuspiciousKeywords: unionSorted(i.SuspiciousKeywords, other.SuspiciousKeywords),
	}
}

// Contains reports whether every item in other is already present in i.
func (i Intelligence) Contains(other Intelligence) bool {
	return containsAll(i.BankAccounts, other.BankAccounts) &&
		containsAll(i.IFSCCodes, other.IFSCCodes) &&
		containsAll(i.UPIIDs, other.UPIIDs) &&
		containsAll(i.PhoneNumbers, other.PhoneNumbers) &&
		containsAll(i.PhishingLinks, other.PhishingLinks) &&
		containsAll(i.SuspiciousKeywords, other.SuspiciousKeywords)
}

func unionSorted(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func containsAll(haystack, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(haystack))
	for _, v := range haystack {
		set[v] = struct{}{}
	}
	for _, v := range needles {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}
