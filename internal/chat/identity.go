package chat

import "unicode"

// PhoneLike reports whether a participant name is a bare phone number:
// no letters and at least six digits. Such entries are offered for renaming.
func PhoneLike(name string) bool {
	digits := 0
	for _, r := range name {
		if unicode.IsLetter(r) {
			return false
		}
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 6
}

// PhoneParticipants returns the phone-number-like entries of the
// participant set, in detection order.
func (t *Transcript) PhoneParticipants() []string {
	var out []string
	for _, p := range t.Participants {
		if PhoneLike(p) {
			out = append(out, p)
		}
	}
	return out
}

// InferMe determines which participant is the exporting device's owner.
// Heuristic order: the transcript's owner marker would name the owner
// directly, but when the export masks it with a placeholder the real name is
// unknown and inference is disabled. With exactly two participants, a
// partner label (from the export's folder or file name) identifies the other
// side; failing that, a single phone-number-like entry marks the partner.
// Anything else is unknown and the caller must choose explicitly.
func (t *Transcript) InferMe(partnerLabel string) (string, bool) {
	if t.OwnerMasked {
		return "", false
	}
	if len(t.Participants) != 2 {
		return "", false
	}
	a, b := t.Participants[0], t.Participants[1]

	if partnerLabel != "" {
		switch normSpace(partnerLabel) {
		case a:
			return b, true
		case b:
			return a, true
		}
	}

	aPhone, bPhone := PhoneLike(a), PhoneLike(b)
	if aPhone != bPhone {
		if aPhone {
			return b, true
		}
		return a, true
	}
	return "", false
}

// NameOverride pairs an auto-suggested display name for a phone-number-like
// participant with the user's choice. A chosen name that diverges from the
// suggestion clears it, so stale suggestions never persist.
type NameOverride struct {
	Suggested string
	Chosen    string
}

// Choose records the user's display name for the entry.
func (o *NameOverride) Choose(name string) {
	if name != o.Suggested {
		o.Suggested = ""
	}
	o.Chosen = name
}

// Display returns the effective name: the chosen override, else the
// suggestion, else the raw entry.
func (o *NameOverride) Display(raw string) string {
	if o.Chosen != "" {
		return o.Chosen
	}
	if o.Suggested != "" {
		return o.Suggested
	}
	return raw
}

// ApplyRenames rewrites sender names in place. Only phone-number-like
// senders are eligible; the owner placeholder is never a rename target.
func (t *Transcript) ApplyRenames(renames map[string]string) {
	if len(renames) == 0 {
		return
	}
	for i := range t.Messages {
		m := &t.Messages[i]
		if m.Sender == "" || IsOwnerPlaceholder(m.Sender) || !PhoneLike(m.Sender) {
			continue
		}
		if to, ok := renames[m.Sender]; ok && to != "" {
			m.Sender = normSpace(to)
		}
	}
	for i, p := range t.Participants {
		if !PhoneLike(p) {
			continue
		}
		if to, ok := renames[p]; ok && to != "" {
			t.Participants[i] = normSpace(to)
		}
	}
}
