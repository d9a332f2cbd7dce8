package authclient

// CredentialDecoder decodes raw credentials into claims without tying
// callers to a specific token layout.
type CredentialDecoder interface {
	Decode(raw string) (Claims, error)
}

// CredentialDecoderFunc adapts a function into a CredentialDecoder.
type CredentialDecoderFunc func(raw string) (Claims, error)

// Decode satisfies the CredentialDecoder interface.
func (f CredentialDecoderFunc) Decode(raw string) (Claims, error) {
	if f == nil {
		return Claims{}, ErrTokenMalformed
	}
	return f(raw)
}

// MultiCredentialDecoder tries decoders in order until one succeeds.
// It treats malformed errors as "try next" and returns the last malformed
// error if all decoders fail.
type MultiCredentialDecoder struct {
	decoders []CredentialDecoder
}

// NewMultiCredentialDecoder filters nil decoders and returns a composite decoder.
func NewMultiCredentialDecoder(decoders ...CredentialDecoder) *MultiCredentialDecoder {
	filtered := make([]CredentialDecoder, 0, len(decoders))
	for _, d := range decoders {
		if d != nil {
			filtered = append(filtered, d)
		}
	}
	return &MultiCredentialDecoder{decoders: filtered}
}

// Decode satisfies the CredentialDecoder interface.
func (m *MultiCredentialDecoder) Decode(raw string) (Claims, error) {
	var lastErr error
	for _, d := range m.decoders {
		claims, err := d.Decode(raw)
		if err == nil {
			return claims, nil
		}
		if IsMalformedError(err) {
			lastErr = err
			continue
		}
		return Claims{}, err
	}
	if lastErr != nil {
		return Claims{}, lastErr
	}
	return Claims{}, ErrTokenMalformed
}
