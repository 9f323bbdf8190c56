package domain

// Verdict is the moderation outcome for a single image.
type Verdict struct {
	Approved    bool
	Reason      string
	ErrorDetail string
}

func Approved(reason string) Verdict {
	return Verdict{Approved: true, Reason: reason}
}

func Rejected(reason string) Verdict {
	return Verdict{Reason: reason}
}
