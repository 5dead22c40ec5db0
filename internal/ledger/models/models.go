package models

import (
	"encoding/json"
	"fmt"
	"time"

	"entangledu/contracts/mint"
)

// Kind classifies how a credential came to exist.
type Kind string

const (
	// KindKnowledge is the pre-issuer form lesson records took; still accepted on load.
	KindKnowledge Kind = "KNOWLEDGE"
	// KindVerifiedProof carries an issuer signature.
	KindVerifiedProof Kind = "VERIFIED_PROOF"
	// KindUnverifiedLocal is recorded when the issuer could not be reached.
	KindUnverifiedLocal Kind = "UNVERIFIED_LOCAL"
	// KindFusion is derived from two parent credentials.
	KindFusion Kind = "FUSION"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindKnowledge, KindVerifiedProof, KindUnverifiedLocal, KindFusion:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Credential is one immutable ledger entry.
//
// Hash and Signature are set only on KindVerifiedProof; SourceIDs only on
// KindFusion. Timestamp is millisecond precision UTC.
type Credential struct {
	ID        string
	Title     string
	Kind      Kind
	Timestamp time.Time
	Hash      string
	Signature string
	SourceIDs []string
}

// Millis converts a unix-millisecond timestamp to the ledger's time form.
func Millis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Truncate brings t to the precision the ledger persists.
func Truncate(t time.Time) time.Time {
	return Millis(t.UnixMilli())
}

// Validate checks the per-kind field rules a new credential must meet.
func (c Credential) Validate() error {
	return c.validate(false)
}

// validate applies the field rules. Stored records may be legacy: fusions
// written before parents were tracked carry no source ids.
func (c Credential) validate(stored bool) error {
	if c.ID == "" {
		return fmt.Errorf("credential id is required")
	}
	if !c.Kind.IsValid() {
		return fmt.Errorf("credential %s: unknown type %q", c.ID, c.Kind)
	}
	if c.Kind != KindVerifiedProof && (c.Hash != "" || c.Signature != "") {
		return fmt.Errorf("credential %s: hash and signature only belong to %s", c.ID, KindVerifiedProof)
	}
	if c.Kind == KindVerifiedProof && (c.Hash == "" || c.Signature == "") {
		return fmt.Errorf("credential %s: %s requires hash and signature", c.ID, KindVerifiedProof)
	}
	if c.Kind == KindFusion && len(c.SourceIDs) != 2 && !(stored && len(c.SourceIDs) == 0) {
		return fmt.Errorf("credential %s: fusion requires two source ids", c.ID)
	}
	if c.Kind != KindFusion && len(c.SourceIDs) > 0 {
		return fmt.Errorf("credential %s: source ids only belong to %s", c.ID, KindFusion)
	}
	return nil
}

// Clone returns a deep copy.
func (c Credential) Clone() Credential {
	if c.SourceIDs != nil {
		c.SourceIDs = append([]string(nil), c.SourceIDs...)
	}
	return c
}

// credentialJSON is the persisted form. Ids written by older clients may be
// JSON numbers.
type credentialJSON struct {
	ID        mint.LessonID `json:"id"`
	Title     string        `json:"title"`
	Type      Kind          `json:"type"`
	Timestamp int64         `json:"timestamp"`
	Hash      string        `json:"hash,omitempty"`
	Signature string        `json:"signature,omitempty"`
	SourceIDs []string      `json:"sourceIds,omitempty"`
}

func (c Credential) MarshalJSON() ([]byte, error) {
	return json.Marshal(credentialJSON{
		ID:        mint.LessonID(c.ID),
		Title:     c.Title,
		Type:      c.Kind,
		Timestamp: c.Timestamp.UnixMilli(),
		Hash:      c.Hash,
		Signature: c.Signature,
		SourceIDs: c.SourceIDs,
	})
}

func (c *Credential) UnmarshalJSON(data []byte) error {
	var raw credentialJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := Credential{
		ID:        string(raw.ID),
		Title:     raw.Title,
		Kind:      raw.Type,
		Timestamp: Millis(raw.Timestamp),
		Hash:      raw.Hash,
		Signature: raw.Signature,
		SourceIDs: raw.SourceIDs,
	}
	if err := decoded.validate(true); err != nil {
		return err
	}
	*c = decoded
	return nil
}

// DecodeLedger parses a persisted ledger array. Entries that cannot be read,
// and repeats of an id already seen, are left out and reported in skipped;
// err is set only when data is not a JSON array at all.
func DecodeLedger(data []byte) (creds []Credential, skipped []error, err error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, err
	}
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		var c Credential
		if err := json.Unmarshal(entry, &c); err != nil {
			skipped = append(skipped, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		if _, dup := seen[c.ID]; dup {
			skipped = append(skipped, fmt.Errorf("entry %d: duplicate credential id %s", i, c.ID))
			continue
		}
		seen[c.ID] = struct{}{}
		creds = append(creds, c)
	}
	return creds, skipped, nil
}

// EncodeLedger is the inverse of DecodeLedger. An empty ledger encodes as [].
func EncodeLedger(creds []Credential) ([]byte, error) {
	if creds == nil {
		creds = []Credential{}
	}
	return json.Marshal(creds)
}
