// Package privacy masks learner identifiers before they reach logs and traces.
// The mint log itself keeps the full recipient.
package privacy

const (
	keepPrefix = 6
	keepSuffix = 4
)

// MaskRecipient keeps enough of a wallet identifier to tell entries apart
// ("0xf39F...2266") and hides the rest. Short values, including
// "anonymous", pass through unchanged; an empty value is "unknown".
func MaskRecipient(recipient string) string {
	if recipient == "" {
		return "unknown"
	}
	r := []rune(recipient)
	if len(r) <= keepPrefix+keepSuffix {
		return recipient
	}
	return string(r[:keepPrefix]) + "..." + string(r[len(r)-keepSuffix:])
}
