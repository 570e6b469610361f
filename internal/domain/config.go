package domain

// SubmissionPolicy holds the limits the submission usecase enforces.
type SubmissionPolicy struct {
	MaxImageBytes int64    `yaml:"maxImageBytes"`
	AllowedTypes  []string `yaml:"allowedTypes"`
}

// DefaultSubmissionPolicy accepts jpeg and png photos up to 10 MiB.
func DefaultSubmissionPolicy() SubmissionPolicy {
	return SubmissionPolicy{
		MaxImageBytes: 10 << 20,
		AllowedTypes:  []string{ContentTypeJPEG, ContentTypePNG},
	}
}

// Allows reports whether contentType is accepted.
func (p SubmissionPolicy) Allows(contentType string) bool {
	for _, t := range p.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}
