package detect

// Category classifies a matched scam signal.
type Category string

const (
	CategoryUrgency       Category = "urgency"
	CategoryPayment       Category = "payment"
	CategorySensitiveInfo Category = "sensitive_info"
	CategoryThreat        Category = "threat"
	CategoryImpersonation Category = "impersonation"
)

// Weight ranks the severity of a signal category.
type Weight int

const (
	WeightMedium Weight = iota
	WeightHigh
	WeightCritical
)

// categoryWeights orders severity: sensitive-info requests alone justify a
// verdict, payment and urgency need corroboration, threat and impersonation
// are supporting signals.
var categoryWeights = map[Category]Weight{
	CategorySensitiveInfo: WeightCritical,
	CategoryPayment:       WeightHigh,
	CategoryUrgency:       WeightHigh,
	CategoryThreat:        WeightMedium,
	CategoryImpersonation: WeightMedium,
}

// keywordTable maps each category to its lexicon. Keywords are lowercase and
// matched as substrings; a keyword belongs to exactly one category so that
// "distinct categories" counts stay meaningful.
var keywordTable = map[Category][]string{
	CategoryUrgency: {
		"urgent", "immediately", "hurry", "quick", "right now",
		"limited time", "expires", "deadline", "last chance", "act now",
		"don't delay", "asap", "today only",
	},
	CategoryPayment: {
		"payment", "transfer", "send money", "wire", "deposit",
		"upi", "qr code", "scan", "cashback", "refund", "processing fee",
	},
	CategorySensitiveInfo: {
		"otp", "password", "pin", "cvv", "card number", "account number",
		"ifsc", "aadhar", "pan card", "kyc", "bank details", "card details",
	},
	CategoryThreat: {
		"block", "suspend", "terminate", "legal action", "court",
		"fine", "penalty", "arrest", "warrant", "unauthorized",
	},
	CategoryImpersonation: {
		"bank", "rbi", "government", "income tax", "police", "cyber crime",
		"customs", "tech support", "customer care", "lottery", "prize",
	},
}

// urgencyLexicon feeds the repetition-based urgency score. It is a superset of
// the urgency category keywords: bare time words count here but are too noisy
// to count as category matches on their own.
var urgencyLexicon = []string{
	"urgent", "immediately", "right now", "hurry", "quick", "fast",
	"limited time", "expires", "deadline", "last chance", "act now",
	"don't delay", "as soon as possible", "asap", "today only", "within",
}

// paymentRedirectLexicon marks attempts to move the victim toward a payment
// or data-entry flow.
var paymentRedirectLexicon = []string{
	"pay", "payment", "transfer", "send money", "wire", "deposit",
	"upi", "qr", "scan", "click link", "download app", "install",
	"fill form", "enter details", "share", "provide",
}

// urlContextLexicon marks the words that turn a bare URL into a payment
// redirection signal.
var urlContextLexicon = []string{"pay", "click", "link", "open", "download"}

// Keywords returns the full detection lexicon across every category. The
// intelligence extractor reuses it so that flagged keywords line up with the
// detector's signal table.
func Keywords() []string {
	var out []string
	for _, words := range keywordTable {
		out = append(out, words...)
	}
	return out
}
